package client

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"strconv"

	goerrors "github.com/goliatone/go-errors"
	"github.com/nyaruka/phonenumbers"

	"github.com/routinely/authkit"
)

// defaultPhoneRegion resolves national numbers when the input carries no
// country prefix.
const defaultPhoneRegion = "US"

// normalizePhone formats a phone number as E.164 when it parses. Input the
// library cannot make sense of passes through untouched so the server can
// reject it with a proper validation message.
func normalizePhone(phone string) string {
	if phone == "" {
		return phone
	}

	parsed, err := phonenumbers.Parse(phone, defaultPhoneRegion)
	if err != nil || !phonenumbers.IsValidNumber(parsed) {
		return phone
	}

	return phonenumbers.Format(parsed, phonenumbers.E164)
}

// encodeProfileForm renders a partial profile update as multipart form data.
// Only set fields are written: booleans as their string form, role ids as
// indexed fields, the avatar as a file part.
func encodeProfileForm(data authkit.ProfileData) ([]byte, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if data.Bio != nil {
		if err := writer.WriteField("bio", *data.Bio); err != nil {
			return nil, "", encodeError(err)
		}
	}

	if data.Location != nil {
		if err := writer.WriteField("location", *data.Location); err != nil {
			return nil, "", encodeError(err)
		}
	}

	if data.Website != nil {
		if err := writer.WriteField("website", *data.Website); err != nil {
			return nil, "", encodeError(err)
		}
	}

	if data.IsPublic != nil {
		if err := writer.WriteField("is_public", strconv.FormatBool(*data.IsPublic)); err != nil {
			return nil, "", encodeError(err)
		}
	}

	for i, id := range data.RoleIDs {
		field := fmt.Sprintf("role_ids[%d]", i)
		if err := writer.WriteField(field, strconv.Itoa(id)); err != nil {
			return nil, "", encodeError(err)
		}
	}

	if data.Avatar != nil {
		part, err := writer.CreateFormFile("avatar", data.Avatar.Filename)
		if err != nil {
			return nil, "", encodeError(err)
		}
		if _, err := io.Copy(part, data.Avatar.Reader); err != nil {
			return nil, "", encodeError(err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", encodeError(err)
	}

	return buf.Bytes(), writer.FormDataContentType(), nil
}

func encodeError(err error) error {
	return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to encode profile form")
}
