package catphotos

// PhotoRecord is one row of the metadata table, keyed by (FamilyID, PhotoID).
// FamilyID is the partition key and PhotoID the sort key; listing returns
// records in sort-key descending order. Optional fields carry omitempty on
// both tag sets so absent values are never stored or serialized as empty
// attributes.
type PhotoRecord struct {
	FamilyID    string `json:"-" dynamodbav:"FamilyId"`
	PhotoID     string `json:"photoId" dynamodbav:"PhotoId"`
	ObjectKey   string `json:"objectKey" dynamodbav:"ObjectKey"`
	UploadedAt  string `json:"uploadedAt" dynamodbav:"UploadedAt"`
	Title       string `json:"title,omitempty" dynamodbav:"Title,omitempty"`
	Description string `json:"description,omitempty" dynamodbav:"Description,omitempty"`
	ContentType string `json:"contentType,omitempty" dynamodbav:"ContentType,omitempty"`
	TakenAt     string `json:"takenAt,omitempty" dynamodbav:"TakenAt,omitempty"`
}

// PhotoDetails holds the optional caller-supplied fields of a metadata record.
type PhotoDetails struct {
	Title       string
	Description string
	ContentType string
	TakenAt     string
}

// UploadTarget is the result of reserving a presigned upload slot. No
// metadata is written until the caller records it separately.
type UploadTarget struct {
	PhotoID          string `json:"photoId"`
	ObjectKey        string `json:"objectKey"`
	UploadURL        string `json:"uploadUrl"`
	Title            string `json:"title,omitempty"`
	ContentType      string `json:"contentType"`
	ExpiresInSeconds int    `json:"expiresInSeconds"`
}
