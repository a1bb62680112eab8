// Package blob reads and writes the framed blob sequence of an OSM PBF file.
//
// A PBF file is a sequence of frames:
//
//	[4-byte big-endian header length][BlobHeader][Blob]
//
// The BlobHeader names the blob type ("OSMHeader" or "OSMData") and gives the
// byte length of the Blob that follows. The Blob carries the payload either
// raw or compressed together with its uncompressed size.
//
// # Reading
//
//	r, err := blob.Open("planet.osm.pbf")
//	if err != nil {
//	    return err
//	}
//	defer r.Close()
//
//	for {
//	    b, err := r.ReadBlob()
//	    if errors.Is(err, io.EOF) {
//	        break
//	    }
//	    if err != nil {
//	        return err
//	    }
//	    // b.Payload is valid until the next ReadBlob call.
//	}
//
// Open checks the OSMHeader block and rejects files that require features this
// module does not implement. NewReader frames an arbitrary stream without that
// check.
//
// # Size Ceilings
//
// Header and body lengths are bounded by WithMaxHeaderSize and
// WithMaxBodySize (64 KiB and 32 MiB by default). A frame declaring a longer
// body is rejected before any of the body is read or allocated.
//
// # Errors
//
// Framing errors (bad length prefix, unparsable BlobHeader, ceiling violation,
// short read) leave the stream position unknown, so the Reader keeps returning
// the same error afterwards. Blob and decompression errors are reported for
// the one frame only; the next ReadBlob continues with the following frame.
//
// # Writing
//
// Writer emits each frame with a single Write call. Payloads are compressed
// with the configured codec (zlib by default) at its highest level.
package blob
