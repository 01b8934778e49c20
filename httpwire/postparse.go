package httpwire

import (
	"io"
	"mime/multipart"

	"github.com/curol/agentnet/header"
	"github.com/curol/agentnet/uri"
)

// ParsePost decodes r.Body into r.PostParams (and, for multipart bodies,
// r.Files), per §4.4's can_parse_post() contract: only a POST whose
// Content-Type is application/x-www-form-urlencoded or multipart/form-data
// is eligible. Like the teacher's other "decode on demand" accessors, the
// body is read lazily here rather than by the parser itself.
//
// mime/multipart is the standard library's own multipart reader; none of
// the example repos import a third-party replacement for it (even the
// stdlib-era http.Request in chyyuu-ucore-x64-with-golang uses it), so
// there is no ecosystem dependency to wire here instead — see DESIGN.md.
func ParsePost(req *Request) error {
	if !req.CanParsePost() {
		return nil
	}
	mt := ParseMimeType(req.Headers.ContentType())

	if mt.IsFormURLEncoded() {
		raw, err := req.Body.ReadAll(true)
		if err != nil && len(raw) == 0 {
			return err
		}
		req.PostParams = uri.ParseQueryString(string(raw))
		return nil
	}

	boundary, ok := mt.Boundary()
	if !ok {
		return errMissingBoundary
	}
	req.PostParams = uri.NewQuery()
	req.Files = make(map[string][]RequestFile)

	mr := multipart.NewReader(req.Body, boundary)
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		contents, err := io.ReadAll(part)
		part.Close()
		if err != nil {
			return err
		}

		name := part.FormName()
		if filename := part.FileName(); filename != "" {
			h := header.New()
			for k, values := range part.Header {
				for _, v := range values {
					h.Add(k, v)
				}
			}
			req.Files[name] = append(req.Files[name], RequestFile{
				Filename:    filename,
				ContentType: part.Header.Get("Content-Type"),
				Headers:     h,
				Contents:    contents,
			})
			continue
		}
		req.PostParams.Add(name, string(contents))
	}
}

var errMissingBoundary = multipartError("httpwire: multipart/form-data with no boundary parameter")

type multipartError string

func (e multipartError) Error() string { return string(e) }
