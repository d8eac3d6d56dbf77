// Package formats provides parsers for Creature skeletal mesh documents
// and the binary point-cache files produced by baking their animations.
package formats

// Note: the JSON document is implemented in creature.go
// Note: the point-cache format is implemented in pointcache.go
