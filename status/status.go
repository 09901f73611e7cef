// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package status defines flight status codes. The numeric values are the wire
// codes oracles report.
package status

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

var ErrUnknownStatus = errors.New("unknown flight status")

type Status uint8

const (
	Unknown       Status = 0
	OnTime        Status = 10
	LateAirline   Status = 20
	LateWeather   Status = 30
	LateTechnical Status = 40
	LateOther     Status = 50
)

// Reportable lists the codes an oracle may submit.
var Reportable = []Status{Unknown, OnTime, LateAirline, LateWeather, LateTechnical, LateOther}

// Valid reports whether s is one of the defined codes.
func (s Status) Valid() bool {
	switch s {
	case Unknown, OnTime, LateAirline, LateWeather, LateTechnical, LateOther:
		return true
	default:
		return false
	}
}

func (s Status) String() string {
	switch s {
	case Unknown:
		return "Unknown"
	case OnTime:
		return "OnTime"
	case LateAirline:
		return "LateAirline"
	case LateWeather:
		return "LateWeather"
	case LateTechnical:
		return "LateTechnical"
	case LateOther:
		return "LateOther"
	default:
		return fmt.Sprintf("Status(%d)", uint8(s))
	}
}

// Parse accepts either the name or the numeric code.
func Parse(str string) (Status, error) {
	for _, s := range Reportable {
		if s.String() == str {
			return s, nil
		}
	}
	if code, err := strconv.ParseUint(str, 10, 8); err == nil && Status(code).Valid() {
		return Status(code), nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownStatus, str)
}

func (s Status) MarshalJSON() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStatus, uint8(s))
	}
	return json.Marshal(s.String())
}

func (s *Status) UnmarshalJSON(b []byte) error {
	var code uint8
	if err := json.Unmarshal(b, &code); err == nil {
		if !Status(code).Valid() {
			return fmt.Errorf("%w: %d", ErrUnknownStatus, code)
		}
		*s = Status(code)
		return nil
	}
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return err
	}
	parsed, err := Parse(str)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
