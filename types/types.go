package types

import "fmt"

// MonumentInfo is one row of the catalog manifest database
type MonumentInfo struct {
	ID        int64    `json:"id"`
	Name      string   `json:"name"`
	Path      string   `json:"path"`
	Location  Location `json:"location"`
	CreatedAt string   `json:"created_at"`
}

// Location holds the geolocation attached to an image. All fields are zero
// unless a catalog row or the image's GPS tags provide them.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Altitude  float64 `json:"altitude"`
	Direction float64 `json:"direction"`
}

// IsZero reports whether no coordinate has been set
func (l Location) IsZero() bool {
	return l == Location{}
}

// Features is an image whose keypoints and descriptors have been computed
type Features interface {
	Path() string
	KeypointCount() int
	Location() Location
	Close() error
}

// Correspondence is a single good match between a query descriptor and a
// reference descriptor
type Correspondence struct {
	QueryIdx int
	TrainIdx int
	Distance float64
}

// MatchResult holds the good matches between a query and one reference image
type MatchResult struct {
	Name         string
	Matches      []Correspondence
	Count        int
	MeanDistance float64
	StdDistance  float64
}

// Recognition is the outcome of looking up one query image in the catalog
type Recognition struct {
	QueryPath string
	Found     bool
	Name      string
	Matches   int
	Location  Location
}

// String renders the console line for the recognition outcome
func (r Recognition) String() string {
	if !r.Found {
		return fmt.Sprintf("Was not able to find monument for image '%s'.", r.QueryPath)
	}
	return fmt.Sprintf("Found Monument for image '%s': %s. With %d feature matches.", r.QueryPath, r.Name, r.Matches)
}
