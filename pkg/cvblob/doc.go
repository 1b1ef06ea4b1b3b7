// Package cvblob implements the disk detector, the sinogram denoiser and the
// radial derivative on top of OpenCV through gocv. The implementations are
// compiled with the gocv build tag and register themselves as the "opencv"
// backend of the config package; without the tag the package is empty.
package cvblob
