package deepface

import "errors"

var (
	ErrInvalidResponse  = errors.New("invalid response from deepface")
	ErrNoFaceInResponse = errors.New("no face data in deepface response")
	ErrEmptyEmbedding   = errors.New("deepface returned empty embedding")
)
