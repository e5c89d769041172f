// Package manhwa aggregates webcomic metadata and chapter content from
// external sites through per-site extractor plugins. Plugins are declared
// in descriptor files, loaded into a registry that can be hot-reloaded
// while requests are being served, and exposed behind a uniform HTTP API.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., goquery/, gin/, fsnotify/).
package manhwa
