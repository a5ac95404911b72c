// Package lineage traces mapping target fields back to their source fields.
//
// A Tracer walks connectors backwards breadth-first from a target port and,
// inside Expression transformations, follows textual references between
// ports. It stops at anything that looks like a source: declared SOURCE
// instances, source qualifiers, sequence generators and expressions with no
// inbound connectors.
//
// Reference matching is a heuristic. Expressions are searched for field
// names, not parsed, so CUSTOMER_ID matches inside CUSTOMER_ID_OLD in the
// default substring mode. MatchWord restricts matches to whole identifiers.
//
// # Basic Usage
//
//	tracer := lineage.NewTracer(mapping, lineage.Options{MaxDepth: 20})
//	result, err := tracer.Trace(ctx, "TGT_ORDERS", "ORDER_TOTAL")
//	if err != nil {
//	    return err
//	}
//
//	for _, rec := range result.Records {
//	    fmt.Printf("%s.%s via %s\n", rec.SourceInstance, rec.SourceField, rec.PathString())
//	}
package lineage
