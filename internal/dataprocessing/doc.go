// Package dataprocessing implements the batch profit pipeline: loading the
// purchases/sales workbook, normalizing its rows into domain records, joining
// purchases to sales by batch reference, and reducing the joined set into
// per-batch profit records and portfolio summaries.
//
// # Architecture
//
// The package is organized into four components:
//
//  1. Loader: reads the Excel workbook and resolves sheets and columns
//  2. Transformer: maps raw rows to PurchaseRecord/SaleRecord with an explicit
//     missing-value policy
//  3. Calculator: groups both sides by batch identifier, outer-joins them and
//     derives BatchProfit records
//  4. Summarizer: reduces the BatchProfit set into overall and per-category
//     summaries
//
// # Data Flow
//
//	Excel File → Loader → RawSheets → Transformer → Records → Calculator → BatchProfits → Summarizer
//
// # Error Handling
//
// A required column missing from a sheet is fatal and reported as a
// SchemaError before any computation runs. Missing or malformed cell values
// are coerced to zero and counted; rows carrying negative quantities or rates
// are excluded from the aggregates and surfaced in the quality report.
package dataprocessing
