package radiotap

// Frame flags carried by FieldFlags.
const (
	FlagCFP      uint8 = 0x01
	FlagShortPre uint8 = 0x02
	FlagWEP      uint8 = 0x04
	FlagFrag     uint8 = 0x08
	FlagFCS      uint8 = 0x10
	FlagDataPad  uint8 = 0x20
)

// Channel flags, second half of FieldChannel.
const (
	ChanTurbo   uint16 = 0x0010
	ChanCCK     uint16 = 0x0020
	ChanOFDM    uint16 = 0x0040
	Chan2GHz    uint16 = 0x0080
	Chan5GHz    uint16 = 0x0100
	ChanPassive uint16 = 0x0200
	ChanDyn     uint16 = 0x0400
	ChanGFSK    uint16 = 0x0800
)

const (
	RxFlagBadFCS uint16 = 0x0001

	TxFlagFail  uint16 = 0x0001
	TxFlagCTS   uint16 = 0x0002
	TxFlagRTS   uint16 = 0x0004
	TxFlagNoAck uint16 = 0x0008
)

// MCS known bits (first byte of FieldMCS).
const (
	MCSHaveBW   uint8 = 0x01
	MCSHaveMCS  uint8 = 0x02
	MCSHaveGI   uint8 = 0x04
	MCSHaveFmt  uint8 = 0x08
	MCSHaveFEC  uint8 = 0x10
	MCSHaveSTBC uint8 = 0x20
)

// MCS flag bits (second byte of FieldMCS).
const (
	MCSBWMask    uint8 = 0x03
	MCSBW20      uint8 = 0
	MCSBW40      uint8 = 1
	MCSBW20L     uint8 = 2
	MCSBW20U     uint8 = 3
	MCSSGI       uint8 = 0x04
	MCSFmtGF     uint8 = 0x08
	MCSFECLDPC   uint8 = 0x10
	MCSSTBCMask  uint8 = 0x60
	MCSSTBCShift       = 5
)
