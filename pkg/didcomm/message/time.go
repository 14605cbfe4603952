/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package message

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

const isoMillisLayout = "2006-01-02T15:04:05.000Z0700"

// epochTime is a timestamp serialized as unix seconds. It also reads numeric strings and ISO timestamps.
type epochTime time.Time

func newEpochTime(t *time.Time) *epochTime {
	if t == nil {
		return nil
	}

	e := epochTime(*t)

	return &e
}

func (e *epochTime) timePtr() *time.Time {
	if e == nil {
		return nil
	}

	t := time.Time(*e)

	return &t
}

func (e epochTime) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(time.Time(e).Unix(), 10)), nil
}

func (e *epochTime) UnmarshalJSON(data []byte) error {
	var s string

	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("timestamp: %w", err)
		}
	} else {
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("timestamp: %w", err)
		}

		s = n.String()
	}

	t, err := parseTimestamp(s)
	if err != nil {
		return err
	}

	*e = epochTime(t)

	return nil
}

func parseTimestamp(s string) (time.Time, error) {
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Unix(int64(secs), 0).UTC(), nil
	}

	t, err := time.Parse(isoMillisLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("timestamp '%s': not unix seconds nor ISO 8601", s)
	}

	return t.UTC(), nil
}
