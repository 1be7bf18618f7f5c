package model

import (
	"encoding/json"
	"fmt"
)

type persistedModel struct {
	AccountName *string `json:"accountName"`
	Query       *string `json:"query"`
}

// Serialize encodes m as {"accountName": string|null, "query": string}.
func Serialize(m Model) string {
	query := m.Query
	data, err := json.Marshal(persistedModel{AccountName: m.AccountName, Query: &query})
	if err != nil {
		// Two string fields cannot fail to marshal.
		panic(fmt.Sprintf("serialize model: %v", err))
	}
	return string(data)
}

// Deserialize decodes a persisted Model. An absent value yields the default Model.
// A malformed value yields the default Model together with the parse error.
func Deserialize(value *string) (Model, error) {
	if value == nil {
		return Model{}, nil
	}

	var p persistedModel
	if err := json.Unmarshal([]byte(*value), &p); err != nil {
		return Model{}, fmt.Errorf("error parsing JSON %q: %w", *value, err)
	}

	var m Model
	if p.Query != nil {
		m.Query = *p.Query
	}
	m.AccountName = p.AccountName
	return m, nil
}
