package model

// Package model contains domain models/data structures.
// Pure data shared across layers; no business logic here.
