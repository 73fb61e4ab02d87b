package sign

import (
	"fmt"
	"io"
)

// xrefEntry records the id and byte offset of an object written into
// OutputBuffer during an incremental update.
type xrefEntry struct {
	ID     uint32
	Offset int64
}

// AddObject appends content as a new indirect object at the end of the
// output buffer, allocating the next free object id and recording its
// offset for the incremental cross-reference section. content must be the
// object's dictionary/stream body only; the "id 0 obj" header and "endobj"
// footer are added here.
func (context *SignContext) AddObject(content []byte) (uint32, error) {
	id := context.lastXrefID + 1

	offset, err := context.OutputBuffer.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}

	if _, err := fmt.Fprintf(context.OutputBuffer, "%d 0 obj\n", id); err != nil {
		return 0, err
	}
	if _, err := context.OutputBuffer.Write(content); err != nil {
		return 0, err
	}
	if _, err := context.OutputBuffer.Write([]byte("\nendobj\n")); err != nil {
		return 0, err
	}

	context.lastXrefID = id
	context.newXrefEntries = append(context.newXrefEntries, xrefEntry{ID: id, Offset: offset})

	return id, nil
}

// UpdateObject appends a new revision of an already-existing object id,
// recording it in the updated xref section rather than the new-object
// section. Like AddObject, content is the body only.
func (context *SignContext) UpdateObject(id uint32, content []byte) error {
	offset, err := context.OutputBuffer.Seek(0, io.SeekEnd)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(context.OutputBuffer, "%d 0 obj\n", id); err != nil {
		return err
	}
	if _, err := context.OutputBuffer.Write(content); err != nil {
		return err
	}
	if _, err := context.OutputBuffer.Write([]byte("\nendobj\n")); err != nil {
		return err
	}

	context.updatedXrefEntries = append(context.updatedXrefEntries, xrefEntry{ID: id, Offset: offset})

	return nil
}

// addObject and updateObject are unexported aliases kept so the bulk of the
// package (which predates the exported spelling needed by callers outside
// the package, e.g. PreSignCallback implementations) doesn't need touching.
func (context *SignContext) addObject(content []byte) (uint32, error) {
	return context.AddObject(content)
}

func (context *SignContext) updateObject(id uint32, content []byte) error {
	return context.UpdateObject(id, content)
}

// lastObjectOffset returns the file offset of the most recently written
// object, or 0 if none has been written yet.
func (context *SignContext) lastObjectOffset() int64 {
	if len(context.newXrefEntries) == 0 {
		return 0
	}
	return context.newXrefEntries[len(context.newXrefEntries)-1].Offset
}
