package prod

// DynamoDB
const (
	DynamoDBRegion = "us-east-2"
)

// Cloud storage
const (
	GoogleStorageHost = "https://storage.googleapis.com"
)
