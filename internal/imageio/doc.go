// Package imageio loads source images for the mosaic pipeline and writes
// finished mosaics.
//
// Decoding is delegated to disintegration/imaging, which also applies EXIF
// orientation so photographs from phones come out upright. Encoding is done
// with bild/imgio; the output format is chosen from the file extension.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. Save and EncodePNGBase64 are
// stateless.
package imageio
