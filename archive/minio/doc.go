// Package minio archives telemetry files to MinIO or any S3-compatible
// storage using the official MinIO client.
//
// # Usage
//
//	client, err := minio.New("localhost:9000", &minio.Options{
//	    Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
//	    Secure: false,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	store := minioarchive.NewStore(client, "telemetry", "robot-7/")
//	n, err := archive.UploadDir(ctx, store, "/var/log/robot")
//
// # Features
//
//   - Works with any S3-compatible storage (Ceph, Garage, SeaweedFS)
//   - Streaming uploads for large telemetry files
//   - Air-gap friendly (no AWS dependencies required)
package minio
