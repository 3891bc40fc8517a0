// Package calendar manages the tenant event listing shown alongside the
// newsletter. Events are lightweight: anyone may suggest one, editors
// approve, and only approved events reach the published page.
package calendar
