// Package mosaic builds photo mosaics: it divides a source image into a grid
// of tiles, reduces each tile to its average color, fetches a substitute
// image for that color and draws the substitutes back in place.
//
// # Pipeline
//
// A run moves through Partitioning, Reducing, Resolving and Compositing and
// ends in Done or Failed:
//
//   - Partition splits the canvas into rows of TileSpecs. Edge tiles are
//     clipped when the image size is not a multiple of the tile size.
//   - AverageColor floors the mean of each RGB channel and encodes it as a
//     six digit lowercase ColorKey such as "825944".
//   - TileCache issues at most one SubstituteResolver request per key and
//     hands every tile with that key the same Future.
//   - Each row waits for all of its futures and is then drawn in one go onto
//     the CompositeTarget, through DrawRow when the target is a RowTarget.
//     A row that cannot be drawn completely is not drawn at all. Rows finish
//     in any order.
//
// # Errors
//
// ErrInvalidInput is returned synchronously by New and by the reducers.
// A failed substitute request is cached as a ResolutionError and fails every
// row that uses that key with a RowError (ErrCompositeFailure); other rows
// are still drawn. Result lists completed and failed rows.
//
// # Usage
//
//	src, _ := mosaic.NewImageSource(img)
//	surface := mosaic.NewSurface(src.Width(), src.Height(), nil)
//	p, err := mosaic.New(src, 16, 16, surface, resolver.NewSwatch())
//	if err != nil {
//	    return err
//	}
//	res, err := p.ProcessImage(ctx)
package mosaic
