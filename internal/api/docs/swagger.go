package docs

import (
	"github.com/go-swagno/swagno"
	"github.com/go-swagno/swagno/components/endpoint"
	"github.com/go-swagno/swagno/components/http/response"
	"github.com/go-swagno/swagno/components/mime"
	"github.com/go-swagno/swagno/components/parameter"
)

// EnrollResponse represents the response for a successful enrollment
type EnrollResponse struct {
	StudentID       string  `json:"student_id" example:"stu-001"`
	SignatureRef    string  `json:"signature_ref" example:"550e8400-e29b-41d4-a716-446655440000"`
	ImageCount      int     `json:"image_count" example:"6"`
	ConfidenceScore float64 `json:"confidence_score" example:"0.91"`
}

// ImageProblemData represents one rejected enrollment image
type ImageProblemData struct {
	Index   int    `json:"image_index" example:"3"`
	Code    string `json:"code" example:"face_not_detected"`
	Message string `json:"message" example:"No face detected in the image"`
}

// EnrollErrorResponse represents a rejected enrollment set with
// per-image diagnostics
type EnrollErrorResponse struct {
	Code     string             `json:"code" example:"validation_failed"`
	Message  string             `json:"message" example:"2 of 6 enrollment images unusable"`
	Problems []ImageProblemData `json:"problems,omitempty"`
}

// TrainingOutcomeData represents one student's bulk enrollment outcome
type TrainingOutcomeData struct {
	SerialNo     int    `json:"serial_no" example:"1"`
	RollNumber   string `json:"roll_number" example:"7A-01"`
	Status       string `json:"status" example:"trained"`
	StudentID    string `json:"student_id,omitempty" example:"stu-001"`
	SignatureRef string `json:"signature_ref,omitempty" example:"550e8400-e29b-41d4-a716-446655440000"`
	ErrorCode    string `json:"error_code,omitempty" example:"face_not_detected"`
	Message      string `json:"message,omitempty"`
}

// BulkEnrollResponse represents the response for bulk enrollment
type BulkEnrollResponse struct {
	SectionID string                `json:"section_id" example:"sec-7a"`
	Total     int                   `json:"total" example:"30"`
	Trained   int                   `json:"trained" example:"27"`
	Failed    int                   `json:"failed" example:"2"`
	Skipped   int                   `json:"skipped" example:"1"`
	Results   []TrainingOutcomeData `json:"results"`
}

// BoundingBoxData locates a face in frame pixel coordinates
type BoundingBoxData struct {
	X      int `json:"x" example:"120"`
	Y      int `json:"y" example:"48"`
	Width  int `json:"width" example:"96"`
	Height int `json:"height" example:"96"`
}

// MatchData represents one recognized face
type MatchData struct {
	StudentID   string          `json:"student_id" example:"stu-001"`
	RollNumber  string          `json:"roll_number,omitempty" example:"7A-01"`
	Name        string          `json:"name,omitempty" example:"Aarav Sharma"`
	Confidence  float64         `json:"confidence" example:"0.91"`
	Tier        string          `json:"tier" example:"auto"`
	BoundingBox BoundingBoxData `json:"bounding_box"`
}

// UnmatchedFaceData represents a detected face without a match
type UnmatchedFaceData struct {
	BoundingBox BoundingBoxData `json:"bounding_box"`
	Message     string          `json:"message,omitempty"`
}

// RecognizeResponse represents the response for frame recognition
type RecognizeResponse struct {
	SectionID     string              `json:"section_id" example:"sec-7a"`
	ClassID       string              `json:"class_id,omitempty" example:"cls-123"`
	FacesDetected int                 `json:"faces_detected" example:"4"`
	ModelTrained  bool                `json:"model_trained" example:"true"`
	Recognized    []MatchData         `json:"recognized"`
	Unrecognized  []UnmatchedFaceData `json:"unrecognized"`
	LatencyMs     int64               `json:"latency_ms" example:"120"`
}

// TrainRequest represents the request to build a section model
type TrainRequest struct {
	SectionID string `json:"section_id" example:"sec-7a"`
}

// TrainResponse represents the response after training
type TrainResponse struct {
	ModelID       string `json:"model_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	SectionID     string `json:"section_id" example:"sec-7a"`
	StudentsCount int    `json:"students_count" example:"28"`
	Generation    uint64 `json:"generation" example:"3"`
	BuiltAt       string `json:"built_at" example:"2026-02-10T08:30:00Z"`
}

// ModelStatusResponse represents a section's training state
type ModelStatusResponse struct {
	SectionID            string `json:"section_id" example:"sec-7a"`
	IsTrained            bool   `json:"is_trained" example:"true"`
	LastTrainedAt        string `json:"last_trained_at,omitempty" example:"2026-02-10T08:30:00Z"`
	StudentsCount        int    `json:"students_count" example:"30"`
	TrainedStudentsCount int    `json:"trained_students_count" example:"28"`
}

// WebhookData represents a registered webhook
type WebhookData struct {
	ID        string   `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Name      string   `json:"name" example:"platform-callback"`
	URL       string   `json:"url" example:"https://platform.example.com/hooks/chamada"`
	Events    []string `json:"events" example:"model.trained,enrollment.bulk_completed"`
	Enabled   bool     `json:"enabled" example:"true"`
	CreatedAt string   `json:"created_at" example:"2026-02-01T00:00:00Z"`
	UpdatedAt string   `json:"updated_at" example:"2026-02-01T00:00:00Z"`
}

// CreateWebhookRequest represents a webhook registration
type CreateWebhookRequest struct {
	Name    string   `json:"name" example:"platform-callback"`
	URL     string   `json:"url" example:"https://platform.example.com/hooks/chamada"`
	Events  []string `json:"events" example:"model.trained"`
	Enabled bool     `json:"enabled" example:"true"`
}

// ListWebhooksResponse wraps the webhook list
type ListWebhooksResponse struct {
	Webhooks []WebhookData `json:"webhooks"`
}

// CreateWebhookResponse carries the new webhook and its signing secret
type CreateWebhookResponse struct {
	Webhook WebhookData `json:"webhook"`
	Secret  string      `json:"secret" example:"4f3c2a..."`
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Code    string `json:"code" example:"validation_failed"`
	Message string `json:"message" example:"Request validation failed"`
}

// EmptyResponse represents no content response (204)
type EmptyResponse struct{}

// NewSwagger creates and configures the Swagger documentation
func NewSwagger() *swagno.Swagger {
	sw := swagno.New(swagno.Config{
		Title:       "Chamada Face Recognition Engine API",
		Version:     "v0.1.0",
		Description: "Face enrollment and recognition engine for classroom attendance: per-student face signatures, per-section searchable indexes and live-frame matching",
		Host:        "localhost:3000",
		Path:        "/v1",
	})

	endpoints := []*endpoint.EndPoint{
		// POST /v1/enroll - Single enrollment
		endpoint.New(
			endpoint.POST,
			"/enroll",
			endpoint.WithTags("Enrollment"),
			endpoint.WithSummary("Enroll a student's face"),
			endpoint.WithDescription("Builds one student's face signature from 5-10 enrollment images. The set fails closed: every image is checked and all problems are reported with 1-based image indexes."),
			endpoint.WithConsume([]mime.MIME{mime.MIME("multipart/form-data")}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(EnrollResponse{}, "201", "Signature stored successfully"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "unauthorized", Message: "Invalid or missing service key"}, "401", "Unauthorized"),
				response.New(ErrorResponse{Code: "already_registered", Message: "A face signature already exists for this student"}, "409", "Conflict"),
				response.New(EnrollErrorResponse{Code: "validation_failed"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "low_quality", Message: "Enrollment images disagree too much, recapture the full set"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "internal_error", Message: "An unexpected error occurred"}, "500", "Internal Server Error"),
			}),
			endpoint.WithSecurity([]map[string][]string{{"ApiKeyAuth": {}}}),
		),

		// POST /v1/enroll/bulk - Bulk enrollment
		endpoint.New(
			endpoint.POST,
			"/enroll/bulk",
			endpoint.WithTags("Enrollment"),
			endpoint.WithSummary("Enroll a whole section"),
			endpoint.WithDescription("Enrolls a section from one image per student. Files are keyed image_<serial_no> and the students field carries a JSON array of serial_no, roll_number and name. Items fail independently."),
			endpoint.WithConsume([]mime.MIME{mime.MIME("multipart/form-data")}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(BulkEnrollResponse{}, "200", "Batch processed, see per-item outcomes"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "unauthorized", Message: "Invalid or missing service key"}, "401", "Unauthorized"),
				response.New(ErrorResponse{Code: "validation_failed", Message: "Request validation failed"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "internal_error", Message: "An unexpected error occurred"}, "500", "Internal Server Error"),
			}),
			endpoint.WithSecurity([]map[string][]string{{"ApiKeyAuth": {}}}),
		),

		// DELETE /v1/enroll/:student_id - Unenroll
		endpoint.New(
			endpoint.DELETE,
			"/enroll/{student_id}",
			endpoint.WithTags("Enrollment"),
			endpoint.WithSummary("Remove a student's face signature"),
			endpoint.WithDescription("Deletes the stored signature and clears the student's face_registered flag. The section index keeps serving until its next rebuild."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("student_id", parameter.Path, parameter.WithDescription("Student identifier")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(EmptyResponse{}, "204", "Signature deleted successfully"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "unauthorized", Message: "Invalid or missing service key"}, "401", "Unauthorized"),
				response.New(ErrorResponse{Code: "signature_not_found", Message: "No face signature stored for this student"}, "404", "Not Found"),
				response.New(ErrorResponse{Code: "internal_error", Message: "An unexpected error occurred"}, "500", "Internal Server Error"),
			}),
			endpoint.WithSecurity([]map[string][]string{{"ApiKeyAuth": {}}}),
		),

		// POST /v1/recognize - Frame recognition
		endpoint.New(
			endpoint.POST,
			"/recognize",
			endpoint.WithTags("Recognition"),
			endpoint.WithSummary("Recognize faces in a live frame"),
			endpoint.WithDescription("Matches one camera frame against the section's trained index. Matches at or above the high threshold are tier auto; between the thresholds they are tier suggested and need teacher confirmation. An untrained section still returns the detected faces, all unrecognized, with model_trained false."),
			endpoint.WithConsume([]mime.MIME{mime.MIME("multipart/form-data")}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(RecognizeResponse{}, "200", "Frame processed successfully"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "unauthorized", Message: "Invalid or missing service key"}, "401", "Unauthorized"),
				response.New(ErrorResponse{Code: "decode_error", Message: "Image is corrupt, unsupported or outside the allowed size"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "rate_limit_exceeded", Message: "Rate limit exceeded, please try again later"}, "429", "Too Many Requests"),
				response.New(ErrorResponse{Code: "internal_error", Message: "An unexpected error occurred"}, "500", "Internal Server Error"),
			}),
			endpoint.WithSecurity([]map[string][]string{{"ApiKeyAuth": {}}}),
		),

		// POST /v1/model/train - Build section model
		endpoint.New(
			endpoint.POST,
			"/model/train",
			endpoint.WithTags("Model"),
			endpoint.WithSummary("Train a section's model"),
			endpoint.WithDescription("Rebuilds the section's searchable index from the stored face signatures and bumps the model generation."),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(TrainResponse{}, "200", "Model built successfully"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "bad_request", Message: "Invalid request"}, "400", "Bad Request"),
				response.New(ErrorResponse{Code: "unauthorized", Message: "Invalid or missing service key"}, "401", "Unauthorized"),
				response.New(ErrorResponse{Code: "no_students", Message: "Section has no enrolled face signatures to train on"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "internal_error", Message: "An unexpected error occurred"}, "500", "Internal Server Error"),
			}),
			endpoint.WithSecurity([]map[string][]string{{"ApiKeyAuth": {}}}),
		),

		// GET /v1/model/status/:section_id - Model status
		endpoint.New(
			endpoint.GET,
			"/model/status/{section_id}",
			endpoint.WithTags("Model"),
			endpoint.WithSummary("Get a section's training state"),
			endpoint.WithDescription("Reports whether the section has a trained index, when it was last built and how many roster students have stored signatures."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("section_id", parameter.Path, parameter.WithDescription("Section identifier")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(ModelStatusResponse{}, "200", "Status retrieved successfully"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "unauthorized", Message: "Invalid or missing service key"}, "401", "Unauthorized"),
				response.New(ErrorResponse{Code: "internal_error", Message: "An unexpected error occurred"}, "500", "Internal Server Error"),
			}),
			endpoint.WithSecurity([]map[string][]string{{"ApiKeyAuth": {}}}),
		),

		// DELETE /v1/model/:section_id - Drop section index
		endpoint.New(
			endpoint.DELETE,
			"/model/{section_id}",
			endpoint.WithTags("Model"),
			endpoint.WithSummary("Drop a section's in-memory index"),
			endpoint.WithDescription("Discards the section's in-memory index. The next recognize or train rebuilds it from the stored signatures."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("section_id", parameter.Path, parameter.WithDescription("Section identifier")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(EmptyResponse{}, "204", "Index dropped successfully"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "unauthorized", Message: "Invalid or missing service key"}, "401", "Unauthorized"),
				response.New(ErrorResponse{Code: "internal_error", Message: "An unexpected error occurred"}, "500", "Internal Server Error"),
			}),
			endpoint.WithSecurity([]map[string][]string{{"ApiKeyAuth": {}}}),
		),

		// GET /v1/webhooks - List webhooks
		endpoint.New(
			endpoint.GET,
			"/webhooks",
			endpoint.WithTags("Webhooks"),
			endpoint.WithSummary("List registered webhooks"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(ListWebhooksResponse{}, "200", "Webhooks retrieved successfully"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "unauthorized", Message: "Invalid or missing service key"}, "401", "Unauthorized"),
				response.New(ErrorResponse{Code: "internal_error", Message: "An unexpected error occurred"}, "500", "Internal Server Error"),
			}),
			endpoint.WithSecurity([]map[string][]string{{"ApiKeyAuth": {}}}),
		),

		// POST /v1/webhooks - Create webhook
		endpoint.New(
			endpoint.POST,
			"/webhooks",
			endpoint.WithTags("Webhooks"),
			endpoint.WithSummary("Register a webhook"),
			endpoint.WithDescription("Registers a webhook for engine events (model.trained, enrollment.bulk_completed). The signing secret is returned once on creation."),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(CreateWebhookResponse{}, "201", "Webhook created successfully"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "bad_request", Message: "Invalid request body"}, "400", "Bad Request"),
				response.New(ErrorResponse{Code: "unauthorized", Message: "Invalid or missing service key"}, "401", "Unauthorized"),
				response.New(ErrorResponse{Code: "internal_error", Message: "An unexpected error occurred"}, "500", "Internal Server Error"),
			}),
			endpoint.WithSecurity([]map[string][]string{{"ApiKeyAuth": {}}}),
		),

		// DELETE /v1/webhooks/:id - Delete webhook
		endpoint.New(
			endpoint.DELETE,
			"/webhooks/{id}",
			endpoint.WithTags("Webhooks"),
			endpoint.WithSummary("Delete a webhook"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("id", parameter.Path, parameter.WithDescription("Webhook UUID")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(EmptyResponse{}, "204", "Webhook deleted successfully"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "unauthorized", Message: "Invalid or missing service key"}, "401", "Unauthorized"),
				response.New(ErrorResponse{Code: "bad_request", Message: "Invalid webhook ID"}, "400", "Bad Request"),
				response.New(ErrorResponse{Code: "internal_error", Message: "Webhook not found"}, "404", "Not Found"),
			}),
			endpoint.WithSecurity([]map[string][]string{{"ApiKeyAuth": {}}}),
		),
	}

	sw.AddEndpoints(endpoints)

	return sw
}
