package aws_client_interfaces

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// MockS3Client replays queued GetObject responses in order and records every
// PutObject call along with the uploaded bytes.
type MockS3Client struct {
	mockGetObjectResponses []MockGetObjectResponse
	putObjectErr           error

	PutObjectCalls []PutObjectCall
}

type MockGetObjectResponse struct {
	expectedInput   *s3.GetObjectInput
	getObjectOutput *s3.GetObjectOutput
	err             error
}

type PutObjectCall struct {
	Input *s3.PutObjectInput
	Body  []byte
}

type UnmockedCallToAwsApiClient struct {
	AwsClient  string
	MethodCall string
}

func (e *UnmockedCallToAwsApiClient) Error() string {
	return fmt.Sprintf("unmocked call to %s.%s", e.AwsClient, e.MethodCall)
}

type UnexpectedInputToAwsApiClientMethod struct {
	MethodCall     string
	ExpectedBucket string
	ExpectedKey    string
	ActualBucket   string
	ActualKey      string
}

func (e *UnexpectedInputToAwsApiClientMethod) Error() string {
	return fmt.Sprintf(
		"unexpected input to %s: expected s3://%s/%s, got s3://%s/%s",
		e.MethodCall,
		e.ExpectedBucket,
		e.ExpectedKey,
		e.ActualBucket,
		e.ActualKey,
	)
}

func NewMockS3Client() *MockS3Client {
	return &MockS3Client{
		mockGetObjectResponses: []MockGetObjectResponse{},
	}
}

func (mock *MockS3Client) AllMocksCalled() bool {
	return len(mock.mockGetObjectResponses) == 0
}

func (mock *MockS3Client) AddMockGetObjectResponse(expectedInput *s3.GetObjectInput, body io.ReadCloser) {
	mock.mockGetObjectResponses = append(mock.mockGetObjectResponses, MockGetObjectResponse{
		expectedInput: expectedInput,
		getObjectOutput: &s3.GetObjectOutput{
			Body: body,
		},
	})
}

func (mock *MockS3Client) AddMockGetObjectError(expectedInput *s3.GetObjectInput, err error) {
	mock.mockGetObjectResponses = append(mock.mockGetObjectResponses, MockGetObjectResponse{
		expectedInput: expectedInput,
		err:           err,
	})
}

func (mock *MockS3Client) SetPutObjectError(err error) {
	mock.putObjectErr = err
}

func (mock *MockS3Client) GetObject(_ context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if len(mock.mockGetObjectResponses) == 0 {
		return nil, &UnmockedCallToAwsApiClient{
			AwsClient:  "S3",
			MethodCall: "GetObject",
		}
	}

	response := mock.mockGetObjectResponses[0]
	mock.mockGetObjectResponses = mock.mockGetObjectResponses[1:]

	if response.err != nil {
		return nil, response.err
	}

	if *response.expectedInput.Bucket != *params.Bucket || *response.expectedInput.Key != *params.Key {
		return nil, &UnexpectedInputToAwsApiClientMethod{
			MethodCall:     "GetObject",
			ExpectedBucket: *response.expectedInput.Bucket,
			ExpectedKey:    *response.expectedInput.Key,
			ActualBucket:   *params.Bucket,
			ActualKey:      *params.Key,
		}
	}

	return response.getObjectOutput, nil
}

func (mock *MockS3Client) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if mock.putObjectErr != nil {
		return nil, mock.putObjectErr
	}

	var body []byte
	if params.Body != nil {
		b, err := io.ReadAll(params.Body)
		if err != nil {
			return nil, err
		}
		body = b
	}

	mock.PutObjectCalls = append(mock.PutObjectCalls, PutObjectCall{Input: params, Body: body})

	return &s3.PutObjectOutput{}, nil
}
