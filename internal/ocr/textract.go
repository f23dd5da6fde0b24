// textract.go - AWS Textract document text detection

package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"
)

// TextractAPI is the subset of the Textract client used here
type TextractAPI interface {
	DetectDocumentText(ctx context.Context, params *textract.DetectDocumentTextInput, optFns ...func(*textract.Options)) (*textract.DetectDocumentTextOutput, error)
}

// TextractOCR sends raw document bytes to Textract
type TextractOCR struct {
	api TextractAPI
}

// NewTextractOCR creates a client from static credentials
func NewTextractOCR(ctx context.Context, accessKeyID, secretAccessKey, region string) (*TextractOCR, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewTextractOCRWithAPI(textract.NewFromConfig(cfg)), nil
}

// NewTextractOCRWithAPI wraps an existing client
func NewTextractOCRWithAPI(api TextractAPI) *TextractOCR {
	return &TextractOCR{api: api}
}

// DetectText returns the text of every LINE block joined with spaces
func (t *TextractOCR) DetectText(ctx context.Context, document []byte) (string, error) {
	out, err := t.api.DetectDocumentText(ctx, &textract.DetectDocumentTextInput{
		Document: &types.Document{Bytes: document},
	})
	if err != nil {
		return "", fmt.Errorf("textract: %w", err)
	}

	lines := make([]string, 0, len(out.Blocks))
	for _, block := range out.Blocks {
		if block.BlockType == types.BlockTypeLine {
			lines = append(lines, aws.ToString(block.Text))
		}
	}
	return strings.Join(lines, " "), nil
}
