// Package ioutils provides file system and image processing utilities.
//
// # File Operations
//
//	// Write a downloaded package atomically
//	err := ioutils.WriteFile(ctx, "/gadgets/clock.gg", data)
//
//	// Serve a thumbnail from the cache when present
//	if data, ok := ioutils.ReadCached("/cache/clock.jpg"); ok { ... }
//
// # Image Processing
//
// The ImageService prepares thumbnails for the cache:
//
//	svc := ioutils.NewImageService()
//	thumb, _ := svc.ResizeImage(ctx, pngData, 80, 60)
package ioutils
