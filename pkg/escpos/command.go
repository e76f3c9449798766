package escpos

// cmd contains the dialect-independent ESC/POS command bytes. Dialect
// specific sequences (enable, cuts, barcode width) live in the dialect
// profiles.
var cmd = struct {
	// Basic commands
	Initialize       []byte
	StatusRequest    []byte
	StatusBackOn     []byte
	StatusBackOff    []byte
	EpicStatusPoll   []byte // + 1-based poll sequence byte
	TransmitRom      []byte
	TransmitFirmware []byte
	FirmwareChecksum []byte

	// Text formatting
	BoldOn        []byte
	BoldOff       []byte
	UnderlineOn   []byte
	UnderlineOff  []byte
	Underline2On  []byte
	SizeNormal    []byte
	SizeDoubleW   []byte
	SizeDoubleH   []byte
	CharSize      []byte // + magnification byte
	FontA         []byte
	FontB         []byte
	FontC         []byte
	AlignLeft     []byte
	AlignCenter   []byte
	AlignRight    []byte
	LineSpaceSet  []byte // + spacing byte
	LineSpaceDef  []byte
	HorizontalBar byte

	// Control characters
	CtlLF []byte
	CtlFF []byte
	CtlCR []byte
	CtlHT []byte
	CtlVT []byte

	// Cutting
	FullCut []byte

	// Cash drawer
	DrawerKickPin2 []byte
	DrawerKickPin5 []byte

	// Barcode selectors
	BarWidth    []byte // + module width byte
	BarHeight   []byte // + dot height byte
	BarHRI      []byte // + position byte
	BarFont     []byte // + font byte
	BarType     []byte // + symbology byte
	BarEpicHead []byte // fixed Epic preamble, + length byte

	// Graphics
	BitImageS8  []byte
	BitImageD8  []byte
	BitImageS24 []byte
	BitImageD24 []byte
	RasterMode  []byte // + scale mode byte

	// Maintenance queries
	QuerySerial      []byte
	QueryCutCount    []byte
	QueryPowerCount  []byte
	QueryPrintedLen  []byte
	QueryPaperLeft   []byte
	QueryPaperSensor []byte
	SetPaperEndLimit []byte // + nH nL
}{
	// Basic commands
	Initialize:       []byte{0x1b, 0x40},             // ESC @
	StatusRequest:    []byte{0x10, 0x04, 0x01},       // DLE EOT 1
	StatusBackOn:     []byte{0x1d, 0x61, 0x01},       // GS a 1
	StatusBackOff:    []byte{0x1d, 0x61, 0x00},       // GS a 0
	EpicStatusPoll:   []byte{0x1b, 0x40, 0x10, 0x04}, // ESC @ DLE EOT + n
	TransmitRom:      []byte{0x1d, 0x49, 0x03},       // GS I 3
	TransmitFirmware: []byte{0x1d, 0x49, 0x41},       // GS I A
	FirmwareChecksum: []byte{0x1d, 0x23, 0x23},       // GS # #

	// Text formatting
	BoldOn:        []byte{0x1b, 0x45, 0x01}, // ESC E 1
	BoldOff:       []byte{0x1b, 0x45, 0x00}, // ESC E 0
	UnderlineOn:   []byte{0x1b, 0x2d, 0x01}, // ESC - 1
	UnderlineOff:  []byte{0x1b, 0x2d, 0x00}, // ESC - 0
	Underline2On:  []byte{0x1b, 0x2d, 0x02}, // ESC - 2
	SizeNormal:    []byte{0x1b, 0x21, 0x00}, // ESC ! 0
	SizeDoubleW:   []byte{0x1b, 0x21, 0x20}, // ESC ! 32
	SizeDoubleH:   []byte{0x1b, 0x21, 0x10}, // ESC ! 16
	CharSize:      []byte{0x1d, 0x21},       // GS ! + n
	FontA:         []byte{0x1b, 0x4d, 0x00}, // ESC M 0
	FontB:         []byte{0x1b, 0x4d, 0x01}, // ESC M 1
	FontC:         []byte{0x1b, 0x4d, 0x02}, // ESC M 2
	AlignLeft:     []byte{0x1b, 0x61, 0x00}, // ESC a 0
	AlignCenter:   []byte{0x1b, 0x61, 0x01}, // ESC a 1
	AlignRight:    []byte{0x1b, 0x61, 0x02}, // ESC a 2
	LineSpaceSet:  []byte{0x1b, 0x33},       // ESC 3 + n
	LineSpaceDef:  []byte{0x1b, 0x32},       // ESC 2
	HorizontalBar: 0xc4,

	// Control characters
	CtlLF: []byte{0x0a},
	CtlFF: []byte{0x0c},
	CtlCR: []byte{0x0d},
	CtlHT: []byte{0x09},
	CtlVT: []byte{0x0b},

	// Cutting
	FullCut: []byte{0x0a, 0x0a, 0x0a, 0x1d, 0x56, 0x00}, // GS V 0

	// Cash drawer
	DrawerKickPin2: []byte{0x1b, 0x70, 0x00, 0x19, 0x19}, // ESC p 0 25 25
	DrawerKickPin5: []byte{0x1b, 0x70, 0x01, 0x19, 0x19}, // ESC p 1 25 25

	// Barcode selectors
	BarWidth:    []byte{0x1d, 0x77}, // GS w + n
	BarHeight:   []byte{0x1d, 0x68}, // GS h + n
	BarHRI:      []byte{0x1d, 0x48}, // GS H + n
	BarFont:     []byte{0x1d, 0x66}, // GS f + n
	BarType:     []byte{0x1d, 0x6b}, // GS k + m
	BarEpicHead: []byte{0x1d, 0x48, 0x02, 0x1d, 0x77, 0x01, 0x1d, 0x6b, 0x49},

	// Graphics
	BitImageS8:  []byte{0x1b, 0x2a, 0x00}, // ESC * 0
	BitImageD8:  []byte{0x1b, 0x2a, 0x01}, // ESC * 1
	BitImageS24: []byte{0x1b, 0x2a, 0x20}, // ESC * 32
	BitImageD24: []byte{0x1b, 0x2a, 0x21}, // ESC * 33
	RasterMode:  []byte{0x1d, 0x76, 0x30}, // GS v 0 + m

	// Maintenance queries
	QuerySerial:      []byte{0x1c, 0xea, 0x52},
	QueryCutCount:    []byte{0x1d, 0xe2},
	QueryPowerCount:  []byte{0x1d, 0xe5},
	QueryPrintedLen:  []byte{0x1d, 0xe3},
	QueryPaperLeft:   []byte{0x1d, 0xe1},
	QueryPaperSensor: []byte{0x1d, 0x72, 0x01}, // GS r 1
	SetPaperEndLimit: []byte{0x1d, 0xe6},       // + nH nL
}
