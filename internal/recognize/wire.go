package recognize

import "image"

// observationJSON is the wire form of an Observation, shared by the HTTP
// stream protocol and replay script files.
type observationJSON struct {
	Faces []faceJSON `json:"faces"`
}

type faceJSON struct {
	Label    int        `json:"label"`
	Distance float64    `json:"distance"`
	Region   regionJSON `json:"region"`
}

type regionJSON struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (o observationJSON) observation() Observation {
	var obs Observation
	for _, f := range o.Faces {
		obs.Faces = append(obs.Faces, Face{
			Label:    f.Label,
			Distance: f.Distance,
			Region:   image.Rect(f.Region.X, f.Region.Y, f.Region.X+f.Region.Width, f.Region.Y+f.Region.Height),
		})
	}
	return obs
}
