package postgres

import (
	"database/sql"
	"encoding/json"
)

// nullRaw stores empty JSON snapshots as NULL rather than empty strings.
func nullRaw(raw json.RawMessage) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

func rawFromNull(ns sql.NullString) json.RawMessage {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	return json.RawMessage(ns.String)
}
