// Package crawler walks catalog listing pages, follows every product link and
// turns each detail page into a record.
//
// The walk is strictly sequential: records and audit entries come out in
// listing order, then link order within a page. A failure on one detail link
// is contained: it is written to the audit log as failed and the walk moves
// on. A listing page failure aborts the walk unless ContainListingFailures is
// set.
package crawler
