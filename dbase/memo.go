package dbase

import (
	"bytes"
	"encoding/binary"
	"io"
	"strconv"
	"strings"
)

// memoHeaderSize is the size of the FPT header including the reserved area
const memoHeaderSize = 512

// DefaultMemoBlockSize is the block size used for new memo files
const DefaultMemoBlockSize uint16 = 64

/**
 *	################################################################
 *	#					dBase memo helper
 *	################################################################
 */

// readMemoHeader reads the header of the memo file
func (file *File) readMemoHeader() error {
	debugf("Reading memo header...")
	if _, err := file.memo.Seek(0, io.SeekStart); err != nil {
		return newError("dbase-memo-readmemoheader-1", err)
	}
	h := &MemoHeader{}
	// BigEndian - Integers in memo files are stored with the most significant byte first
	if err := binary.Read(file.memo, binary.BigEndian, h); err != nil {
		return newError("dbase-memo-readmemoheader-2", err)
	}
	if h.BlockSize == 0 {
		h.BlockSize = DefaultMemoBlockSize
	}
	file.memoHeader = h
	return nil
}

// writeMemoHeader writes the memo header padded to the reserved header area
func (file *File) writeMemoHeader() error {
	debugf("Writing memo header - next free block: %d", file.memoHeader.NextFree)
	if _, err := file.memo.Seek(0, io.SeekStart); err != nil {
		return newError("dbase-memo-writememoheader-1", err)
	}
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.BigEndian, file.memoHeader); err != nil {
		return newError("dbase-memo-writememoheader-2", err)
	}
	if _, err := file.memo.Write(buf.Bytes()); err != nil {
		return newError("dbase-memo-writememoheader-3", err)
	}
	if _, err := file.memo.Write(make([]byte, memoHeaderSize-buf.Len())); err != nil {
		return newError("dbase-memo-writememoheader-4", err)
	}
	return nil
}

// memoAddress decodes the block address of a memo column, FoxPro stores 4 byte integers, dBase 10 ASCII digits
func memoAddress(raw []byte) (uint32, error) {
	if blank(raw) {
		return 0, nil
	}
	if len(raw) == 4 {
		return binary.LittleEndian.Uint32(raw), nil
	}
	s := strings.TrimSpace(string(bytes.Trim(raw, "\x00")))
	address, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, newErrorf("dbase-memo-memoaddress-1", "%w: invalid memo address %q", ErrInvalidValue, s)
	}
	return uint32(address), nil
}

// readMemoAt reads the memo the block address points to.
// A zero address returns nil data.
func (file *File) readMemoAt(raw []byte) ([]byte, bool, error) {
	address, err := memoAddress(raw)
	if err != nil {
		return nil, false, err
	}
	if address == 0 {
		return nil, false, nil
	}
	if file.memo == nil || file.memoHeader == nil {
		return nil, false, newError("dbase-memo-readmemoat-1", ErrNoFPT)
	}
	offset := int64(address) * int64(file.memoHeader.BlockSize)
	if _, err := file.memo.Seek(offset, io.SeekStart); err != nil {
		return nil, false, newError("dbase-memo-readmemoat-2", err)
	}
	block := make([]byte, 8)
	if _, err := io.ReadFull(file.memo, block); err != nil {
		return nil, false, newError("dbase-memo-readmemoat-3", err)
	}
	sign := MemoType(binary.BigEndian.Uint32(block[:4]))
	length := binary.BigEndian.Uint32(block[4:])
	data := make([]byte, length)
	if _, err := io.ReadFull(file.memo, data); err != nil {
		return nil, false, newErrorf("dbase-memo-readmemoat-4", "%w: memo at block %d: %v", ErrIncomplete, address, err)
	}
	return data, sign == TextMemo, nil
}

// writeMemo appends the data as a new memo block and returns the 4 byte block address
func (file *File) writeMemo(data []byte, text bool) ([]byte, error) {
	if file.memo == nil || file.memoHeader == nil {
		return nil, newError("dbase-memo-writememo-1", ErrNoFPT)
	}
	file.memoMutex.Lock()
	defer file.memoMutex.Unlock()

	blockSize := int64(file.memoHeader.BlockSize)
	address := file.memoHeader.NextFree
	if _, err := file.memo.Seek(int64(address)*blockSize, io.SeekStart); err != nil {
		return nil, newError("dbase-memo-writememo-2", err)
	}
	sign := PictureMemo
	if text {
		sign = TextMemo
	}
	buf := new(bytes.Buffer)
	_ = binary.Write(buf, binary.BigEndian, uint32(sign))
	_ = binary.Write(buf, binary.BigEndian, uint32(len(data)))
	buf.Write(data)
	// Fill up the last block
	if rest := int64(buf.Len()) % blockSize; rest != 0 {
		buf.Write(make([]byte, blockSize-rest))
	}
	if _, err := file.memo.Write(buf.Bytes()); err != nil {
		return nil, newError("dbase-memo-writememo-3", err)
	}
	file.memoHeader.NextFree += uint32(int64(buf.Len()) / blockSize)
	debugf("Memo written at block %d with %d bytes", address, len(data))
	raw := make([]byte, 4)
	binary.LittleEndian.PutUint32(raw, address)
	return raw, nil
}
