package ensureserviceuser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/iam/types"
)

// UserPath is the IAM path every dataset upload user lives under
const UserPath = "/scality-internal/"

// IAMAPI is the part of *iam.Client needed to provision an upload user
type IAMAPI interface {
	GetUser(ctx context.Context, params *iam.GetUserInput, optFns ...func(*iam.Options)) (*iam.GetUserOutput, error)
	CreateUser(ctx context.Context, params *iam.CreateUserInput, optFns ...func(*iam.Options)) (*iam.CreateUserOutput, error)
	PutUserPolicy(ctx context.Context, params *iam.PutUserPolicyInput, optFns ...func(*iam.Options)) (*iam.PutUserPolicyOutput, error)
	ListAccessKeys(ctx context.Context, params *iam.ListAccessKeysInput, optFns ...func(*iam.Options)) (*iam.ListAccessKeysOutput, error)
	CreateAccessKey(ctx context.Context, params *iam.CreateAccessKeyInput, optFns ...func(*iam.Options)) (*iam.CreateAccessKeyOutput, error)
}

// uploadUser is the IAM identity log-generator signs dataset uploads with
type uploadUser struct {
	iam    IAMAPI
	name   string
	bucket string
}

// Apply makes serviceName a user allowed to put objects into bucket (every
// bucket when empty) and returns its access key. The secret is only known,
// and only returned, when the key is created by this call.
//
// Apply is idempotent: an existing user keeps its key and gets its policy
// rewritten.
func Apply(ctx context.Context, client IAMAPI, serviceName, bucket string) (*Result, error) {
	if serviceName == "" {
		return nil, fmt.Errorf("service name cannot be empty")
	}

	user := uploadUser{iam: client, name: serviceName, bucket: bucket}

	if err := user.ensureExists(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure user: %w", err)
	}
	if err := user.grantUploads(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure policy: %w", err)
	}

	result, err := user.accessKey(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure access key: %w", err)
	}
	return result, nil
}

func (u uploadUser) ensureExists(ctx context.Context) error {
	out, err := u.iam.GetUser(ctx, &iam.GetUserInput{UserName: aws.String(u.name)})
	switch {
	case err == nil:
		if path := aws.ToString(out.User.Path); path != "" && path != UserPath {
			return fmt.Errorf("user %s has conflicting path %s, expected %s", u.name, path, UserPath)
		}
		return nil
	case !isNoSuchEntity(err):
		return fmt.Errorf("looking up user %s: %w", u.name, err)
	}

	if _, err := u.iam.CreateUser(ctx, &iam.CreateUserInput{
		UserName: aws.String(u.name),
		Path:     aws.String(UserPath),
	}); err != nil {
		return fmt.Errorf("creating user %s: %w", u.name, err)
	}
	return nil
}

// grantUploads writes the inline policy named after the user
func (u uploadUser) grantUploads(ctx context.Context) error {
	doc, err := PolicyDocument(u.bucket)
	if err != nil {
		return err
	}

	if _, err := u.iam.PutUserPolicy(ctx, &iam.PutUserPolicyInput{
		UserName:       aws.String(u.name),
		PolicyName:     aws.String(u.name),
		PolicyDocument: aws.String(doc),
	}); err != nil {
		return fmt.Errorf("writing policy of %s: %w", u.name, err)
	}
	return nil
}

// accessKey returns the first existing key, or creates one
func (u uploadUser) accessKey(ctx context.Context) (*Result, error) {
	keys, err := u.iam.ListAccessKeys(ctx, &iam.ListAccessKeysInput{UserName: aws.String(u.name)})
	if err != nil {
		return nil, fmt.Errorf("listing access keys of %s: %w", u.name, err)
	}
	if len(keys.AccessKeyMetadata) > 0 {
		return &Result{AccessKeyId: aws.ToString(keys.AccessKeyMetadata[0].AccessKeyId)}, nil
	}

	created, err := u.iam.CreateAccessKey(ctx, &iam.CreateAccessKeyInput{UserName: aws.String(u.name)})
	if err != nil {
		return nil, fmt.Errorf("creating access key for %s: %w", u.name, err)
	}
	return &Result{
		AccessKeyId:     aws.ToString(created.AccessKey.AccessKeyId),
		SecretAccessKey: created.AccessKey.SecretAccessKey,
	}, nil
}

// PolicyDocument returns the inline policy granting s3:PutObject on every
// key of bucket, or of every bucket when bucket is empty.
func PolicyDocument(bucket string) (string, error) {
	if bucket == "" {
		bucket = "*"
	}

	doc, err := json.Marshal(policyDocument{
		Version: "2012-10-17",
		Statement: []policyStatement{{
			Effect:   "Allow",
			Action:   []string{"s3:PutObject"},
			Resource: fmt.Sprintf("arn:aws:s3:::%s/*", bucket),
		}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal policy document failed: %w", err)
	}
	return string(doc), nil
}

func isNoSuchEntity(err error) bool {
	var noSuchEntity *types.NoSuchEntityException
	return errors.As(err, &noSuchEntity)
}
