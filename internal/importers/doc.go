// Package importers turns citation exports into entities.Publication records.
//
// # Architecture
//
// Every source has its own adapter, and all of them produce the same record:
//
//	BibTeX text  → ParseBibTeX           ┐
//	RIS / XML    → ParseEndNote          ├→ []entities.Publication → review.Session
//	Zotero items → TransformZoteroItems  ┘
//
// Adapters are pure functions over in-memory input. They collect problems
// as human-readable strings instead of aborting, except for EndNote XML,
// where a malformed document fails the whole input.
//
// # Type Mapping
//
// Each adapter maps its native type string through a TypeMapper. The three
// tables (BibTeXTypes, RISTypes, ZoteroTypes) share one signature, so a
// caller can swap the policy without touching the parser:
//
//	p := importers.NewBibTeXParser()
//	p.Types = importers.NewTypeTable(entities.PublicationTypeOther, map[string]entities.PublicationType{
//		"online": entities.PublicationTypeOther,
//	})
//
// # Parsers
//
// BibTeXParser and EndNoteParser implement Parser, which is what the HTTP
// layer and the CLI use:
//
//	parser, err := importers.ParserFor(entities.ImportMethodBibTeX)
//	result, err := parser.Parse(text)
//	// result.Publications, result.Errors
//
// Zotero items are fetched by the zotero package and mapped here without I/O.
package importers
