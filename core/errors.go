// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package core

import (
	"errors"
	"fmt"
)

// ErrInvalidFormat is the sentinel every *FormatError wraps, so callers can
// do errors.Is(err, core.ErrInvalidFormat) without caring which specific
// structural failure occurred.
var ErrInvalidFormat = errors.New("invalid format")

// IsInvalidFormat reports whether err is, or wraps, a *FormatError.
func IsInvalidFormat(err error) bool {
	return errors.Is(err, ErrInvalidFormat)
}

// FormatError is returned for every structural or integrity failure raised
// while walking a box/element tree: a bad header, a size that doesn't add
// up, an out-of-range VINT, a CRC mismatch. Kind is one of the Err* sentinels
// below and is preserved through errors.Is/errors.As so a caller can branch
// on the exact failure without string-matching Error().
type FormatError struct {
	Kind Kind
	Err  error
}

func (e *FormatError) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Err)
}

func (e *FormatError) Unwrap() error {
	return ErrInvalidFormat
}

func (e *FormatError) Is(target error) bool {
	if target == ErrInvalidFormat {
		return true
	}
	fe, ok := target.(*FormatError)
	return ok && fe.Kind == e.Kind
}

// Kind names one of the error kinds. Comparing Kind values (rather than
// error identity) lets both errors built with NewFormatError from the Err*
// kinds below and ad hoc wraps produced by NewFormatErrorf share one switch.
type Kind string

const (
	// I/O / integrity
	ErrFileNotFound  Kind = "file_not_found"
	ErrFileEmpty     Kind = "file_empty"
	ErrFileEndedEarly Kind = "file_ended_early"
	ErrReadError     Kind = "read_error"

	// BMFF structural
	ErrWrongFileFormat    Kind = "wrong_file_format"
	ErrBoxInvalidSize     Kind = "box_invalid_size"
	ErrFTYPDuplicated     Kind = "ftyp_duplicated"
	ErrFTYPInvalidSize    Kind = "ftyp_invalid_size"
	ErrHDLRUnexpectedParent Kind = "hdlr_unexpected_parent"
	ErrHDLRInvalidSize    Kind = "hdlr_invalid_size"
	ErrCHPLInvalidSize    Kind = "chpl_invalid_size"
	ErrELSTInvalidSize    Kind = "elst_invalid_size"
	ErrMDHDUnknownVersion Kind = "mdhd_unknown_version"
	ErrMDHDInvalidSize    Kind = "mdhd_invalid_size"
	ErrMVHDUnknownVersion Kind = "mvhd_unknown_version"
	ErrMVHDInvalidSize    Kind = "mvhd_invalid_size"
	ErrTKHDUnknownVersion Kind = "tkhd_unknown_version"
	ErrTKHDInvalidSize    Kind = "tkhd_invalid_size"
	ErrITunesDataInvalidSize Kind = "itunes_data_invalid_size"
	ErrMetaInvalidSize    Kind = "meta_invalid_size"

	// EBML-specific
	ErrEBMLHeaderMissingOrCorrupt Kind = "ebml_header_missing_or_corrupt"
	ErrEBMLHeaderDuplicated       Kind = "ebml_header_duplicated"
	ErrEBMLHeaderUnexpectedFieldLength Kind = "ebml_header_unexpected_field_length"
	ErrUnsupportedEBMLVersion     Kind = "unsupported_ebml_version"
	ErrDocTypeEmpty               Kind = "doctype_empty"
	ErrDocTypeTooLong             Kind = "doctype_too_long"
	ErrDocTypeVersionInvalid      Kind = "doctype_version_invalid"
	ErrDocTypeReadVersionInvalid  Kind = "doctype_read_version_invalid"
	ErrMaxIDLengthInvalid         Kind = "max_id_length_invalid"
	ErrMaxSizeInvalid             Kind = "max_size_invalid"
	ErrInvalidCRCSize             Kind = "invalid_crc_size"
	ErrInvalidCRC                 Kind = "invalid_crc"
	ErrUnsignedInvalidLength      Kind = "unsigned_invalid_length"
	ErrSignedInvalidLength        Kind = "signed_invalid_length"
	ErrFloatInvalidLength         Kind = "float_invalid_length"
	ErrUnprintableString          Kind = "unprintable_string"
	ErrSegmentUIDInvalidLength    Kind = "segment_uid_invalid_length"
	ErrVIntAllZero                Kind = "vint_all_zero"
	ErrVIntAllOne                 Kind = "vint_all_one"
	ErrVIntOutOfRange             Kind = "vint_out_of_range"

	// Matroska-specific
	ErrMatroskaBodyRootWrongID       Kind = "matroska_body_root_wrong_id"
	ErrMatroskaBrokenSeekPosition    Kind = "matroska_broken_seek_position"
	ErrMatroskaSegmentUIDInvalidLength Kind = "matroska_segment_uid_invalid_length"
	ErrMatroskaTrackTypeInvalidLength Kind = "matroska_track_type_invalid_length"
)

// NewFormatError wraps err under kind.
func NewFormatError(kind Kind, err error) error {
	return &FormatError{Kind: kind, Err: err}
}

// NewFormatErrorf builds a *FormatError from a formatted message, mirroring
// the teacher's newInvalidFormatErrorf.
func NewFormatErrorf(kind Kind, format string, args ...any) error {
	return &FormatError{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// These strings come from the standard library or OS wrapping a read past
// EOF; we fold them into FileEndedEarly/ReadError rather than surfacing a
// bare io.ErrUnexpectedEOF to callers, the same way imagemeta's
// isInvalidFormatErrorCandidate folds fuzzer-induced EOFs.
var ioErrorStrings = []string{
	"unexpected EOF",
	"EOF",
}

func isShortReadCandidate(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	for _, c := range ioErrorStrings {
		if s == c {
			return true
		}
	}
	return false
}

// WrapReadError classifies a raw I/O error as FileEndedEarly (ran off the
// end of the file mid-structure) or ReadError (an underlying OS failure).
func WrapReadError(err error) error {
	if err == nil {
		return nil
	}
	if isShortReadCandidate(err) {
		return NewFormatError(ErrFileEndedEarly, err)
	}
	return NewFormatError(ErrReadError, err)
}
