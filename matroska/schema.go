// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

// Package matroska interprets the Matroska/WebM schema layered on top of
// a generic EBML stream: given an element ID, it reports the element's
// name and how its payload should be decoded, and handles the handful of
// elements (SeekPosition, UID fields, DateUTC, TrackType, Block family)
// that need more than a scalar decode.
package matroska

// Disposition says how an element's payload bytes should be interpreted.
type Disposition uint8

const (
	DispositionUnknown Disposition = iota
	DispositionMaster
	DispositionUnsignedInt
	DispositionSignedInt
	DispositionFloat
	DispositionString
	DispositionUTF8
	DispositionDate
	DispositionBinary
	// DispositionSpecial marks an ID whose decode needs more than a
	// scalar — see special.go for the per-ID logic keyed on these IDs.
	DispositionSpecial
)

// ElementDef names an ID and how to decode it.
type ElementDef struct {
	Name        string
	Disposition Disposition
}

// IDSegment is the one body-root ID a Matroska/WebM document's top-level
// body element is required to carry. IDCluster is exported alongside it
// since the ebml package's Options (SkipClusters, ReturnAfterCluster)
// need to recognise it without reaching into the unexported ID table.
const (
	IDSegment uint64 = 0x18538067
	IDCluster uint64 = 0x1F43B675
	IDTags    uint64 = 0x1254C367
)

// Schema element IDs, grouped by where they nest. Binary-coded in the
// long-form (4-byte) EBML ID space except where Matroska defines a
// shorter class D/C/B ID (TrackEntry's children, Cues' children, and so
// on all use short IDs in real files, same as here).
const (
	idSeekHead               uint64 = 0x114D9B74
	idSeek                   uint64 = 0x4DBB
	idSeekID                 uint64 = 0x53AB
	idSeekPosition           uint64 = 0x53AC
	idInfo                   uint64 = 0x1549A966
	idTimestampScale         uint64 = 0x2AD7B1
	idDuration               uint64 = 0x4489
	idDateUTC                uint64 = 0x4461
	idMuxingApp              uint64 = 0x4D80
	idWritingApp             uint64 = 0x5741
	idSegmentUID             uint64 = 0x73A4
	idSegmentFilename        uint64 = 0x7384
	idPrevUID                uint64 = 0x3CB923
	idPrevFilename           uint64 = 0x3C83AB
	idNextUID                uint64 = 0x3EB923
	idNextFilename           uint64 = 0x3E83BB
	idSegmentFamily          uint64 = 0x4444
	idTitle                  uint64 = 0x7BA9

	idTracks                 uint64 = 0x1654AE6B
	idTrackEntry             uint64 = 0xAE
	idTrackNumber            uint64 = 0xD7
	idTrackUID               uint64 = 0x73C5
	idTrackType              uint64 = 0x83
	idFlagEnabled            uint64 = 0xB9
	idFlagDefault            uint64 = 0x88
	idFlagForced             uint64 = 0x55AA
	idFlagLacing             uint64 = 0x9C
	idDefaultDuration        uint64 = 0x23E383
	idName                   uint64 = 0x536E
	idLanguage               uint64 = 0x22B59C
	idLanguageBCP47          uint64 = 0x22B59D
	idCodecID                uint64 = 0x86
	idCodecPrivate           uint64 = 0x63A2
	idCodecName              uint64 = 0x258688

	idVideo                  uint64 = 0xE0
	idPixelWidth             uint64 = 0xB0
	idPixelHeight            uint64 = 0xBA
	idDisplayWidth           uint64 = 0x54B0
	idDisplayHeight          uint64 = 0x54BA
	idPixelCropBottom        uint64 = 0x54AA
	idPixelCropTop           uint64 = 0x54BB
	idPixelCropLeft          uint64 = 0x54CC
	idPixelCropRight         uint64 = 0x54DD

	idAudio                  uint64 = 0xE1
	idSamplingFrequency      uint64 = 0xB5
	idOutputSamplingFreq     uint64 = 0x78B5
	idChannels               uint64 = 0x9F
	idBitDepth               uint64 = 0x6264

	idCluster                uint64 = 0x1F43B675
	idTimestamp              uint64 = 0xE7
	idSimpleBlock            uint64 = 0xA3
	idBlockGroup             uint64 = 0xA0
	idBlock                  uint64 = 0xA1
	idBlockDuration          uint64 = 0x9B
	idReferenceBlock         uint64 = 0xFB

	idCues                   uint64 = 0x1C53BB6B
	idCuePoint               uint64 = 0xBB
	idCueTime                uint64 = 0xB3
	idCueTrackPositions      uint64 = 0xB7
	idCueTrack               uint64 = 0xF7
	idCueClusterPosition     uint64 = 0xF1
	idCueBlockNumber         uint64 = 0x5378

	idChapters               uint64 = 0x1043A770
	idEditionEntry           uint64 = 0x45B9
	idChapterAtom            uint64 = 0xB6
	idChapterUID             uint64 = 0x73C4
	idChapterTimeStart       uint64 = 0x91
	idChapterTimeEnd         uint64 = 0x92
	idChapterDisplay         uint64 = 0x80
	idChapString             uint64 = 0x85
	idChapLanguage           uint64 = 0x437C

	idTags                   uint64 = 0x1254C367
	idTag                    uint64 = 0x7373
	idTargets                uint64 = 0x63C0
	idTargetTypeValue        uint64 = 0x68CA
	idSimpleTag              uint64 = 0x67C8
	idTagName                uint64 = 0x45A3
	idTagLanguage            uint64 = 0x447A
	idTagDefault             uint64 = 0x4484
	idTagString              uint64 = 0x4487
	idTagBinary              uint64 = 0x4485

	idAttachments            uint64 = 0x1941A469
	idAttachedFile           uint64 = 0x61A7
	idFileDescription        uint64 = 0x467E
	idFileName               uint64 = 0x466E
	idFileMimeType           uint64 = 0x4660
	idFileData               uint64 = 0x465C
	idFileUID                uint64 = 0x46AE
)

// schema maps every recognised ID to its ElementDef. IDs not present are
// reported as unrecognised by Lookup, and handled as opaque binary by
// the generic walk (skip-only, no interning).
var schema = map[uint64]ElementDef{
	IDSegment:            {"Segment", DispositionMaster},
	idSeekHead:           {"SeekHead", DispositionMaster},
	idSeek:               {"Seek", DispositionMaster},
	idSeekID:             {"SeekID", DispositionBinary},
	idSeekPosition:       {"SeekPosition", DispositionSpecial},
	idInfo:               {"Info", DispositionMaster},
	idTimestampScale:     {"TimestampScale", DispositionUnsignedInt},
	idDuration:           {"Duration", DispositionFloat},
	idDateUTC:            {"DateUTC", DispositionDate},
	idMuxingApp:          {"MuxingApp", DispositionUTF8},
	idWritingApp:         {"WritingApp", DispositionUTF8},
	idSegmentUID:         {"SegmentUID", DispositionSpecial},
	idSegmentFilename:    {"SegmentFilename", DispositionUTF8},
	idPrevUID:            {"PrevUID", DispositionSpecial},
	idPrevFilename:       {"PrevFilename", DispositionUTF8},
	idNextUID:            {"NextUID", DispositionSpecial},
	idNextFilename:       {"NextFilename", DispositionUTF8},
	idSegmentFamily:      {"SegmentFamily", DispositionSpecial},
	idTitle:              {"Title", DispositionUTF8},

	idTracks:             {"Tracks", DispositionMaster},
	idTrackEntry:         {"TrackEntry", DispositionMaster},
	idTrackNumber:        {"TrackNumber", DispositionUnsignedInt},
	idTrackUID:           {"TrackUID", DispositionUnsignedInt},
	idTrackType:          {"TrackType", DispositionSpecial},
	idFlagEnabled:        {"FlagEnabled", DispositionUnsignedInt},
	idFlagDefault:        {"FlagDefault", DispositionUnsignedInt},
	idFlagForced:         {"FlagForced", DispositionUnsignedInt},
	idFlagLacing:         {"FlagLacing", DispositionUnsignedInt},
	idDefaultDuration:    {"DefaultDuration", DispositionUnsignedInt},
	idName:               {"Name", DispositionUTF8},
	idLanguage:           {"Language", DispositionSpecial},
	idLanguageBCP47:      {"LanguageBCP47", DispositionSpecial},
	idCodecID:            {"CodecID", DispositionString},
	idCodecPrivate:       {"CodecPrivate", DispositionBinary},
	idCodecName:          {"CodecName", DispositionUTF8},

	idVideo:              {"Video", DispositionMaster},
	idPixelWidth:         {"PixelWidth", DispositionUnsignedInt},
	idPixelHeight:        {"PixelHeight", DispositionUnsignedInt},
	idDisplayWidth:       {"DisplayWidth", DispositionUnsignedInt},
	idDisplayHeight:      {"DisplayHeight", DispositionUnsignedInt},
	idPixelCropBottom:    {"PixelCropBottom", DispositionUnsignedInt},
	idPixelCropTop:       {"PixelCropTop", DispositionUnsignedInt},
	idPixelCropLeft:      {"PixelCropLeft", DispositionUnsignedInt},
	idPixelCropRight:     {"PixelCropRight", DispositionUnsignedInt},

	idAudio:              {"Audio", DispositionMaster},
	idSamplingFrequency:  {"SamplingFrequency", DispositionFloat},
	idOutputSamplingFreq: {"OutputSamplingFrequency", DispositionFloat},
	idChannels:           {"Channels", DispositionUnsignedInt},
	idBitDepth:           {"BitDepth", DispositionUnsignedInt},

	idCluster:            {"Cluster", DispositionMaster},
	idTimestamp:          {"Timestamp", DispositionUnsignedInt},
	idSimpleBlock:        {"SimpleBlock", DispositionBinary},
	idBlockGroup:         {"BlockGroup", DispositionMaster},
	idBlock:              {"Block", DispositionBinary},
	idBlockDuration:      {"BlockDuration", DispositionUnsignedInt},
	idReferenceBlock:     {"ReferenceBlock", DispositionSignedInt},

	idCues:               {"Cues", DispositionMaster},
	idCuePoint:           {"CuePoint", DispositionMaster},
	idCueTime:            {"CueTime", DispositionUnsignedInt},
	idCueTrackPositions:  {"CueTrackPositions", DispositionMaster},
	idCueTrack:           {"CueTrack", DispositionUnsignedInt},
	idCueClusterPosition: {"CueClusterPosition", DispositionSpecial},
	idCueBlockNumber:     {"CueBlockNumber", DispositionUnsignedInt},

	idChapters:           {"Chapters", DispositionMaster},
	idEditionEntry:       {"EditionEntry", DispositionMaster},
	idChapterAtom:        {"ChapterAtom", DispositionMaster},
	idChapterUID:         {"ChapterUID", DispositionUnsignedInt},
	idChapterTimeStart:   {"ChapterTimeStart", DispositionUnsignedInt},
	idChapterTimeEnd:     {"ChapterTimeEnd", DispositionUnsignedInt},
	idChapterDisplay:     {"ChapterDisplay", DispositionMaster},
	idChapString:         {"ChapString", DispositionUTF8},
	idChapLanguage:       {"ChapLanguage", DispositionSpecial},

	idTags:               {"Tags", DispositionMaster},
	idTag:                {"Tag", DispositionMaster},
	idTargets:            {"Targets", DispositionMaster},
	idTargetTypeValue:    {"TargetTypeValue", DispositionUnsignedInt},
	idSimpleTag:          {"SimpleTag", DispositionMaster},
	idTagName:            {"TagName", DispositionUTF8},
	idTagLanguage:        {"TagLanguage", DispositionSpecial},
	idTagDefault:         {"TagDefault", DispositionUnsignedInt},
	idTagString:          {"TagString", DispositionUTF8},
	idTagBinary:          {"TagBinary", DispositionBinary},

	idAttachments:        {"Attachments", DispositionMaster},
	idAttachedFile:       {"AttachedFile", DispositionMaster},
	idFileDescription:    {"FileDescription", DispositionUTF8},
	idFileName:           {"FileName", DispositionUTF8},
	idFileMimeType:       {"FileMimeType", DispositionString},
	idFileData:           {"FileData", DispositionBinary},
	idFileUID:            {"FileUID", DispositionUnsignedInt},
}

// Lookup reports the ElementDef for id, and ok == false for any ID the
// schema doesn't name (including every Void/CRC-32, handled generically
// one level up, and any vendor or future extension ID).
func Lookup(id uint64) (ElementDef, bool) {
	def, ok := schema[id]
	return def, ok
}

// NameResolver resolves a Matroska element name to its ID, for
// core.GetValueByName path lookups.
func NameResolver(name string) (uint64, bool) {
	for id, def := range schema {
		if def.Name == name {
			return id, true
		}
	}
	return 0, false
}
