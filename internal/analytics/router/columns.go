package router

import (
	"bytes"
	"encoding/json"
	"strings"

	cbigquery "cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/google/uuid"
)

func text(value string) cbigquery.NullString {
	value = strings.TrimSpace(value)
	return cbigquery.NullString{StringVal: value, Valid: value != ""}
}

func id(value uuid.UUID) cbigquery.NullString {
	if value == uuid.Nil {
		return cbigquery.NullString{}
	}
	return cbigquery.NullString{StringVal: value.String(), Valid: true}
}

func cents(value int64) cbigquery.NullInt64 {
	return cbigquery.NullInt64{Int64: value, Valid: true}
}

func flag(value bool) cbigquery.NullBool {
	return cbigquery.NullBool{Bool: value, Valid: true}
}

// date keeps the column null when the payload carries no parseable
// YYYY-MM-DD value.
func date(value string) cbigquery.NullDate {
	parsed, err := civil.ParseDate(strings.TrimSpace(value))
	if err != nil {
		return cbigquery.NullDate{}
	}
	return cbigquery.NullDate{Date: parsed, Valid: true}
}

// document stores the payload compacted; it is already known to decode.
func document(raw json.RawMessage) cbigquery.NullJSON {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return cbigquery.NullJSON{JSONVal: string(raw), Valid: len(raw) > 0}
	}
	return cbigquery.NullJSON{JSONVal: buf.String(), Valid: true}
}
