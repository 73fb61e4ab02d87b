package sign

import (
	"fmt"
	"io"
	"strings"
)

// updateByteRange fills in the real /ByteRange values now that the whole
// incremental update (signature placeholder, visual signature, catalog,
// xref, trailer) has been appended to OutputBuffer. It writes over the
// placeholder text in place, so it must produce a string no longer than
// signatureByteRangePlaceholder.
func (context *SignContext) updateByteRange() error {
	end, err := context.OutputBuffer.Seek(0, io.SeekEnd)
	if err != nil {
		return err
	}

	// Don't count the trailing newline written after copying the input file.
	output_file_size := end - 1

	context.ByteRangeValues = make([]int64, 4)

	// Signature ByteRange part 1 start byte is always byte 0.
	context.ByteRangeValues[0] = int64(0)

	// Signature ByteRange part 1 length stops right at the '<' opening /Contents.
	context.ByteRangeValues[1] = context.SignatureContentsStartByte

	// Signature ByteRange part 2 start byte directly follows the hex digest.
	context.ByteRangeValues[2] = context.ByteRangeValues[1] + int64(context.SignatureMaxLength)

	// Signature ByteRange part 2 length is everything else of the file.
	context.ByteRangeValues[3] = output_file_size - context.ByteRangeValues[2]

	new_byte_range := fmt.Sprintf("/ByteRange[%d %d %d %d]", context.ByteRangeValues[0], context.ByteRangeValues[1], context.ByteRangeValues[2], context.ByteRangeValues[3])

	// Make sure our ByteRange string didn't shrink in length.
	new_byte_range += strings.Repeat(" ", len(signatureByteRangePlaceholder)-len(new_byte_range))

	if _, err := context.OutputBuffer.Seek(context.ByteRangeStartByte, io.SeekStart); err != nil {
		return err
	}

	if _, err := context.OutputBuffer.Write([]byte(new_byte_range)); err != nil {
		return err
	}

	return nil
}
