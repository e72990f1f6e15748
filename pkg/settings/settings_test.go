// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Thermoquad/collarstat/pkg/petrainer"
	"github.com/fxamacker/cbor/v2"
)

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "missing.cbor"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s != Defaults() {
		t.Errorf("Load = %+v, want defaults %+v", s, Defaults())
	}
	if s.Key != 0x1234 || s.Channel != petrainer.Channel1 || s.KeepAlive != petrainer.MaskNone {
		t.Errorf("unexpected defaults %+v", s)
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "settings.cbor")
	want := Settings{Key: 0xBEEF, Channel: petrainer.Channel2, KeepAlive: petrainer.MaskBoth}

	if err := Save(path, want); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got != want {
		t.Errorf("Load = %+v, want %+v", got, want)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file left behind")
	}
}

func TestLoad_PartialRecordKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.cbor")
	data, err := cbor.Marshal(map[int]interface{}{0: 0x4321})
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s.Key != 0x4321 || s.Channel != petrainer.Channel1 {
		t.Errorf("Load = %+v, want key 0x4321 on channel 1", s)
	}
}

func TestLoad_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.cbor")
	if err := os.WriteFile(path, []byte{0xFF, 0x00, 0x13}, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for corrupt settings file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		s       Settings
		wantErr bool
	}{
		{"defaults", Defaults(), false},
		{"channel 2 keep both", Settings{Key: 1, Channel: petrainer.Channel2, KeepAlive: petrainer.MaskBoth}, false},
		{"channel 0", Settings{Channel: 0}, true},
		{"channel 3", Settings{Channel: 3}, true},
		{"keep-alive mask 4", Settings{Channel: petrainer.Channel1, KeepAlive: 4}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.s.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSave_RejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.cbor")
	if err := Save(path, Settings{Channel: 7}); err == nil {
		t.Fatal("expected Save to reject invalid settings")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("invalid settings should not be written")
	}
}

func TestMask(t *testing.T) {
	if m := (Settings{Channel: petrainer.Channel1}).Mask(); m != petrainer.MaskChannel1 {
		t.Errorf("channel 1 mask = %s", m)
	}
	if m := (Settings{Channel: petrainer.Channel2}).Mask(); m != petrainer.MaskChannel2 {
		t.Errorf("channel 2 mask = %s", m)
	}
}
