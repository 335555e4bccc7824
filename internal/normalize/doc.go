// Package normalize provides the per-file CSV normalization pipeline.
//
// This package contains all of the normalization logic independent of how
// files are discovered or how results are delivered. It is used by the batch
// driver, the HTTP service, and tests without modification.
//
// # Pipeline
//
// A single file moves through a strictly linear sequence:
//
//  1. [DetectEncoding] samples the first bytes and guesses a charset.
//     Guesses below the confidence threshold are read as UTF-8.
//  2. The input is decoded to UTF-8 and parsed with a fixed dialect:
//     ';' delimiter, '"' quoting, leading spaces trimmed.
//  3. The first row is the header. It is written unchanged and fixes the
//     column count and the per-column [Role] for the rest of the file.
//  4. Every data row is cleaned with [CleanText], padded or truncated to
//     the header width, then each field is dispatched by its column role.
//  5. The output is written as UTF-8 with minimal quoting.
//
// # Column Roles
//
// Roles are derived once from the header by case-insensitive name match:
//
//   - "date" (exact)        -> [RoleDate]       via [NormalizeDate]
//   - contains "time"       -> [RoleTimestamp]  via [NormalizeTimestamp]
//   - contains "latitud"    -> [RoleLatitude]   via [DMSToDecimal]
//   - contains "longitud"   -> [RoleLongitude]  via [DMSToDecimal], sign forced negative
//   - anything else         -> [RolePlain]
//
// # Longitude Sign Convention
//
// The source datasets record every longitude west of Greenwich, so by
// default longitude values are stored as -|value| regardless of the sign
// in the source text. This is a dataset convention, not a geodesy rule.
// Set [Options].PreserveLongitudeSign to keep the parsed sign for datasets
// that span hemispheres.
//
// # Error Handling
//
// Field normalizers never fail: they return either the transformed value
// or the input untouched. Only structural problems ([ErrEmptyFile]) and
// I/O errors are returned to the caller. A failed file never leaves a
// partial output behind.
package normalize
