package deepface

// RepresentRequest for POST /represent
type RepresentRequest struct {
	Img      string `json:"img"`      // base64 encoded image
	Model    string `json:"model"`    // "ArcFace", "Facenet512", etc
	Detector string `json:"detector"` // "retinaface", "mtcnn", etc
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

// ExtractRequest for POST /extract_faces
type ExtractRequest struct {
	Img      string `json:"img"`
	Detector string `json:"detector"`
	Align    bool   `json:"align"`
}

// ExtractResponse from POST /extract_faces
type ExtractResponse struct {
	Results []ExtractResult `json:"results"`
}

type ExtractResult struct {
	FacialArea FacialArea `json:"facial_area"`
	Confidence float64    `json:"confidence"`
}
