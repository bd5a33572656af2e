package domain

// AnnotationCard is a positioned, scene-scoped popup with descriptive text and
// an optional forward link to another scene. Cards are configuration-time
// records keyed by the scene id they attach to.
type AnnotationCard struct {
	ID          string      `json:"id" yaml:"id"`
	Position    LngLat      `json:"position" yaml:"position"`
	Title       string      `json:"title" yaml:"title"`
	NextSceneID string      `json:"nextSceneId,omitempty" yaml:"nextSceneId"`
	Content     CardContent `json:"content" yaml:"content"`
	Style       CardStyle   `json:"style" yaml:"style"`
}

// CardContent carries the card body: a markdown description plus a small
// key/value table rendered under it.
type CardContent struct {
	Type        string            `json:"type" yaml:"type"`
	Description string            `json:"description" yaml:"description"`
	Data        map[string]string `json:"data" yaml:"data"`
}

// CardStyle controls presentation. Priority orders cards within a scene;
// lower values stack first.
type CardStyle struct {
	Theme    string `json:"theme" yaml:"theme"`
	Size     string `json:"size" yaml:"size"`
	Priority int    `json:"priority" yaml:"priority"`
}
