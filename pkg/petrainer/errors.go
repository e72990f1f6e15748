// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package petrainer

import "errors"

var (
	ErrInvalidParams  = errors.New("invalid channel or action")
	ErrInterrupted    = errors.New("command interrupted")
	ErrMalformedFrame = errors.New("malformed frame")
)
