// Package s3 archives telemetry files to Amazon S3, with an optional
// DynamoDB catalog of what has been uploaded.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("telemetry/"),
//	    s3.WithRegion("us-east-1"),
//	)
//	if err != nil {
//	    return err
//	}
//
//	n, err := archive.UploadDir(ctx, store, "/var/log/robot")
//
// # Features
//
//   - Multipart uploads for large telemetry files
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
//   - Duplicate-upload detection through the DynamoDB Catalog
package s3
