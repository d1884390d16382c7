// Package codec reads and writes timeline files.
//
// Each Codec handles one serialization and claims one or more file suffixes;
// a Registry picks the codec for a path. Both codecs share one document
// shape modelled on the OpenTimelineIO interchange format: every object
// carries an OTIO_SCHEMA discriminator ("Clip.2", "Track.1", ...) and every
// time is a RationalTime with a value and a rate.
//
// Numbers are kept exact. A value with a finite decimal form is written as a
// plain numeric literal; anything else (24000/1001) is written as a quoted
// fraction. Both forms are accepted on input.
package codec
