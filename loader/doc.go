// Package loader loads TTX workload archives onto a chip's tensix
// cores and verifies the results.
//
// # Overview
//
// The loader walks an archive's per-core images, validates them
// against a logical-to-physical core mapping and the chip's current
// tensix locations, then dispatches the decoded chunks as NOC writes:
//   - In broadcast mode (one logical core 0-0 mapped to every tensix
//     location) chunks go out as broadcast writes.
//   - Otherwise each logical core's chunks are written to every
//     physical core it maps to, individually.
//
// All format and mapping problems are detected before the first write;
// a failed load never leaves a partially validated archive on the
// device by surprise.
//
// # Basic Usage
//
//	ar, err := ttx.OpenArchive("workload.ttx")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer ar.Close()
//
//	l := loader.New(device)
//
//	tensix, _ := device.TensixLocations()
//	mapping := ttx.CoreMapping{{X: 0, Y: 0}: tensix.Sorted()}
//
//	loaded, err := l.Load(context.Background(), ar, mapping)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Completion Checks
//
// After the workload runs, evaluate the archive's completion checks
// against live memory, scoped to the cores that actually received an
// image:
//
//	checks, err := loader.CompletionChecksFromArchive(ar)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	ok, err := checks.RemapForBroadcast(loaded).Evaluate(ctx, device)
//
// # Configuration Options
//
// Customize behavior with functional options:
//
//	l := loader.New(device,
//	    loader.WithVerify(false),
//	    loader.WithLogger(myLogger),
//	    loader.WithProgressCallback(progressFunc),
//	)
//
// # Hardware Independence
//
// This package does NOT implement the chip transport. Callers provide
// a Device implementation backed by whatever driver reaches their
// hardware; mock devices work the same way for testing. Transport
// failures are propagated unchanged, wrapped only with the operation,
// core, and address that raised them.
package loader
