// Package salaryscope is a filter-and-aggregate pipeline for salary
// dashboards.
//
// Usage:
//
//	import "github.com/spektr-org/salaryscope/engine"
//
//	vm := engine.Build(records, selection,
//	    engine.WithTopN(10),
//	    engine.WithBins(30),
//	    engine.WithFocusRole("Data Scientist"),
//	)
//
// The engine takes typed salary records and a four-dimension Selection
// (year, seniority, contract type, company size) and returns a ViewModel:
// the filtered subset, headline KPIs, top roles by mean salary, a salary
// histogram, a category distribution and per-country means for one role.
//
// Loading is handled separately by the source package and the engine
// never performs I/O. Everything downstream of a load is computed in memory.
package salaryscope
