// Package search holds the lookup state machine behind the search box.
package search

import (
	"encoding/json"

	"github.com/robertmeta/nutriinfo-cli/model"
)

// QueryState is exactly one of Idle, Loading, Success or Failed.
type QueryState interface {
	Status() string
	isQueryState()
}

// Idle is the state before any search and after Reset.
type Idle struct{}

// Loading means a lookup for Query is in flight.
type Loading struct {
	Query string
}

// Success carries the record of the last completed lookup.
type Success struct {
	Record *model.NutritionRecord
}

// Failed carries the classified failure of the last lookup and the
// message to show, already in the active language.
type Failed struct {
	Kind    model.ErrorKind
	Message string
}

func (Idle) Status() string    { return "idle" }
func (Loading) Status() string { return "loading" }
func (Success) Status() string { return "success" }
func (Failed) Status() string  { return "error" }

func (Idle) isQueryState()    {}
func (Loading) isQueryState() {}
func (Success) isQueryState() {}
func (Failed) isQueryState()  {}

func (s Idle) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Status string `json:"status"`
	}{s.Status()})
}

func (s Loading) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Status string `json:"status"`
		Query  string `json:"query"`
	}{s.Status(), s.Query})
}

func (s Success) MarshalJSON() ([]byte, error) {
	var macros []model.MacroShare
	if s.Record != nil {
		macros = s.Record.MacroDistribution()
	}
	return json.Marshal(struct {
		Status string                 `json:"status"`
		Record *model.NutritionRecord `json:"record"`
		Macros []model.MacroShare     `json:"macros"`
	}{s.Status(), s.Record, macros})
}

func (s Failed) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Status  string          `json:"status"`
		Kind    model.ErrorKind `json:"kind"`
		Message string          `json:"message"`
	}{s.Status(), s.Kind, s.Message})
}
