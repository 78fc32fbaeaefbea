// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package fixture

import "axonflow/insights/gateway/store"

// The built-in dataset. Ids use the same 24-hex shape the real store keys
// records by, so every pipeline path behaves identically against either
// store. Records cover the interesting analysis cases: improving, declining
// and flat grade sequences, at-risk finals, attendance and behavior flags.
var datasetOrder = []string{
	"5f43a1a8a1a1a1a1a1a1a1a1",
	"5f43a1a8b2b2b2b2b2b2b2b2",
	"689cef602490264c7f2dd235",
	"689cef602490264c7f2dd236",
	"689cef602490264c7f2dd237",
	"689cef602490264c7f2dd238",
	"689cef602490264c7f2dd239",
	"689cef602490264c7f2dd23a",
}

var dataset = map[string]store.Document{
	"5f43a1a8a1a1a1a1a1a1a1a1": {
		"name": "Alice", "age": 17, "sex": "F",
		"G1": 12, "G2": 12, "G3": 13,
		"studytime": 3, "absences": 2, "failures": 0,
		"goout": 2, "Dalc": 1, "Walc": 1,
	},
	"5f43a1a8b2b2b2b2b2b2b2b2": {
		"name": "Bob", "age": 18, "sex": "M",
		"G1": 13, "G2": 14, "G3": 15,
		"studytime": 2, "absences": 0, "failures": 0,
		"goout": 3, "Dalc": 1, "Walc": 2,
	},
	"689cef602490264c7f2dd235": {
		"name": "Carla", "age": 16, "sex": "F",
		"G1": 10, "G2": 12, "G3": 14,
		"studytime": 3, "absences": 1, "failures": 0,
		"goout": 2, "Dalc": 1, "Walc": 1,
	},
	"689cef602490264c7f2dd236": {
		"name": "Diego", "age": 17, "sex": "M",
		"G1": 14, "G2": 11, "G3": 9,
		"studytime": 1, "absences": 12, "failures": 1,
		"goout": 4, "Dalc": 2, "Walc": 4,
	},
	"689cef602490264c7f2dd237": {
		"name": "Elena", "age": 18, "sex": "F",
		"G1": 11, "G2": 11, "G3": 11,
		"studytime": 2, "absences": 4, "failures": 0,
		"goout": 3, "Dalc": 1, "Walc": 2,
	},
	"689cef602490264c7f2dd238": {
		"name": "Farid", "age": 17, "sex": "M",
		"G1": 8, "G2": 9, "G3": 9,
		"studytime": 1, "absences": 7, "failures": 2,
		"goout": 3, "Dalc": 2, "Walc": 3,
	},
	"689cef602490264c7f2dd239": {
		"name": "Greta", "age": 16, "sex": "F",
		"G1": 15, "G2": 16, "G3": 18,
		"studytime": 4, "absences": 0, "failures": 0,
		"goout": 1, "Dalc": 1, "Walc": 1,
	},
	"689cef602490264c7f2dd23a": {
		"name": "Hugo", "age": 19, "sex": "M",
		"G1": 7, "G2": 6, "G3": 5,
		"studytime": 1, "absences": 15, "failures": 3,
		"goout": 5, "Dalc": 4, "Walc": 5,
	},
}
