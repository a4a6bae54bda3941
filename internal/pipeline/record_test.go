package pipeline

import "testing"

func TestBuildRecord(t *testing.T) {
	tests := []struct {
		name    string
		row     Row
		columns []string
		check   func(t *testing.T, rec map[string]any)
	}{
		{
			name:    "empty fields are dropped",
			row:     Row{"a": "", "b": "  ", "c": "value"},
			columns: []string{"a", "b", "c"},
			check: func(t *testing.T, rec map[string]any) {
				if len(rec) != 1 {
					t.Errorf("record has %d fields, want 1: %v", len(rec), rec)
				}
				if rec["c"] != "value" {
					t.Errorf("c = %v, want \"value\"", rec["c"])
				}
			},
		},
		{
			name:    "mbUsed textual true",
			row:     Row{ColUsed: "TRUE"},
			columns: []string{ColUsed},
			check: func(t *testing.T, rec map[string]any) {
				if rec[ColUsed] != true {
					t.Errorf("mbUsed = %v, want true", rec[ColUsed])
				}
			},
		},
		{
			name:    "mbUsed textual false",
			row:     Row{ColUsed: "false"},
			columns: []string{ColUsed},
			check: func(t *testing.T, rec map[string]any) {
				if rec[ColUsed] != false {
					t.Errorf("mbUsed = %v, want false", rec[ColUsed])
				}
			},
		},
		{
			name:    "mbUsed integer truth value",
			row:     Row{ColUsed: "1"},
			columns: []string{ColUsed},
			check: func(t *testing.T, rec map[string]any) {
				if rec[ColUsed] != true {
					t.Errorf("mbUsed = %v, want true", rec[ColUsed])
				}
			},
		},
		{
			name:    "mbUsed zero is false",
			row:     Row{ColUsed: "0"},
			columns: []string{ColUsed},
			check: func(t *testing.T, rec map[string]any) {
				if rec[ColUsed] != false {
					t.Errorf("mbUsed = %v, want false", rec[ColUsed])
				}
			},
		},
		{
			name:    "malformed mbUsed is dropped",
			row:     Row{ColUsed: "maybe"},
			columns: []string{ColUsed},
			check: func(t *testing.T, rec map[string]any) {
				if _, ok := rec[ColUsed]; ok {
					t.Errorf("malformed mbUsed kept: %v", rec[ColUsed])
				}
			},
		},
		{
			name:    "mqttName whitespace collapsed",
			row:     Row{ColMQTTName: "  Grid   Power \t Total  "},
			columns: []string{ColMQTTName},
			check: func(t *testing.T, rec map[string]any) {
				if rec[ColMQTTName] != "Grid Power Total" {
					t.Errorf("mqttName = %q, want \"Grid Power Total\"", rec[ColMQTTName])
				}
			},
		},
		{
			name:    "float field stays float",
			row:     Row{"mbScaling": "0.1"},
			columns: []string{"mbScaling"},
			check: func(t *testing.T, rec map[string]any) {
				if rec["mbScaling"] != 0.1 {
					t.Errorf("mbScaling = %v (%T), want 0.1 float64", rec["mbScaling"], rec["mbScaling"])
				}
			},
		},
		{
			name:    "whole-number float field stays float",
			row:     Row{"mqttScaling": "10"},
			columns: []string{"mqttScaling"},
			check: func(t *testing.T, rec map[string]any) {
				if rec["mqttScaling"] != 10.0 {
					t.Errorf("mqttScaling = %v (%T), want 10.0 float64", rec["mqttScaling"], rec["mqttScaling"])
				}
			},
		},
		{
			name:    "other numeric fields become ints",
			row:     Row{ColRegister: "100", ColHandler: "3"},
			columns: []string{ColRegister, ColHandler},
			check: func(t *testing.T, rec map[string]any) {
				if rec[ColRegister] != 100 {
					t.Errorf("mbRegister = %v (%T), want 100 int", rec[ColRegister], rec[ColRegister])
				}
				if rec[ColHandler] != 3 {
					t.Errorf("mbHandler = %v (%T), want 3 int", rec[ColHandler], rec[ColHandler])
				}
			},
		},
		{
			name:    "float-formatted value in int field truncates",
			row:     Row{ColRegister: "100.0"},
			columns: []string{ColRegister},
			check: func(t *testing.T, rec map[string]any) {
				if rec[ColRegister] != 100 {
					t.Errorf("mbRegister = %v (%T), want 100 int", rec[ColRegister], rec[ColRegister])
				}
			},
		},
		{
			name:    "non-numeric fields pass through as strings",
			row:     Row{ColName: "Grid_Power", "comment": "per phase"},
			columns: []string{ColName, "comment"},
			check: func(t *testing.T, rec map[string]any) {
				if rec[ColName] != "Grid_Power" {
					t.Errorf("plcVariableName = %v, want \"Grid_Power\"", rec[ColName])
				}
				if rec["comment"] != "per phase" {
					t.Errorf("comment = %v, want \"per phase\"", rec["comment"])
				}
			},
		},
		{
			name:    "mqttPayload never serialized",
			row:     Row{ColMQTTPayload: "raw"},
			columns: []string{ColMQTTPayload},
			check: func(t *testing.T, rec map[string]any) {
				if len(rec) != 0 {
					t.Errorf("record not empty: %v", rec)
				}
			},
		},
		{
			name:    "column absent from row is skipped",
			row:     Row{},
			columns: []string{"missing"},
			check: func(t *testing.T, rec map[string]any) {
				if len(rec) != 0 {
					t.Errorf("record not empty: %v", rec)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, BuildRecord(tt.row, tt.columns))
		})
	}
}
