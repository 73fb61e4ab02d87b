package sign

func (context *SignContext) createInfo() (info string, err error) {
	original_info := context.PDFReader.Trailer().Key("Info")
	info = "<<"

	info_keys := original_info.Keys()
	for _, key := range info_keys {
		info += "/" + key
		if key == "ModDate" {
			info += pdfDateTime(context.SignData.Signature.Info.Date)
		} else {
			info += pdfString(original_info.Key(key).RawString())
		}
	}

	info += ">>"
	return info, nil
}
