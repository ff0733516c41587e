package deepface

// RepresentRequest for POST /represent
type RepresentRequest struct {
	Img      string `json:"img"`      // base64 encoded image
	Model    string `json:"model"`    // "Facenet512", "VGG-Face", etc
	Detector string `json:"detector"` // "retinaface", "mtcnn", or "skip" for pre-cropped faces
}

// RepresentResponse from POST /represent
type RepresentResponse struct {
	Results []RepresentResult `json:"results"`
}

type RepresentResult struct {
	Embedding  []float64  `json:"embedding"`
	FacialArea FacialArea `json:"facial_area"`
}

type FacialArea struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// ExtractRequest for POST /extract (detection without embedding)
type ExtractRequest struct {
	Img      string `json:"img"`
	Detector string `json:"detector"`
}

// ExtractResponse from POST /extract
type ExtractResponse struct {
	Results []ExtractResult `json:"results"`
}

type ExtractResult struct {
	FacialArea FacialArea `json:"facial_area"`
	Confidence float64    `json:"confidence"`
}
