// Package domain defines the core business types for the newsletter builder.
//
// Types in this package are pure value objects with no behavior beyond
// validation and key formatting, no database dependencies, and no HTTP
// concerns. They are the shared language between handlers, services, and
// repositories.
//
// Rules for this package:
//   - No imports from other internal/ packages
//   - No storage clients, no http.Request, no context.Context in struct fields
//   - Composite row keys (date_shortName, start_end_title) live here as
//     structured types; their string encodings are produced/consumed only at
//     the storage and HTTP boundaries
//   - Validation methods are allowed (they're pure functions on the type)
//   - Shared error sentinels for the storage contract belong here
package domain
