package httpapi

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/server/storage"
)

// multipartOverhead leaves room for boundaries and headers around the file.
const multipartOverhead = 1 << 20

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) error {
	p, err := s.accounts.GetProfile(r.Context(), currentUser(r.Context()))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, newProfileResponse(p))
	return nil
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) error {
	var req updateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}

	p, err := s.accounts.UpdateProfile(r.Context(), currentUser(r.Context()), req.FullName, req.Bio)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, newProfileResponse(p))
	return nil
}

// handleProfilePicture accepts a multipart upload in the "file" field. The
// content type is sniffed from the bytes, not taken from the client.
func (s *Server) handleProfilePicture(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, storage.MaxPictureSize+multipartOverhead)
	if err := r.ParseMultipartForm(multipartOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errUnprocessable("Image is too large", err)
		}
		return errUnprocessable("Invalid multipart body", err)
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		return errUnprocessable("file is required", err)
	}
	defer file.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return errBadRequest("Could not read upload", err)
	}
	head = head[:n]
	contentType := http.DetectContentType(head)

	p, err := s.accounts.SetProfilePicture(r.Context(), currentUser(r.Context()),
		contentType, io.MultiReader(bytes.NewReader(head), file), header.Size)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, newProfileResponse(p))
	return nil
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) error {
	var req changePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}

	err := s.accounts.ChangePassword(r.Context(), currentUser(r.Context()), req.OldPassword, req.NewPassword)
	if err != nil {
		if errors.Is(err, common.ErrBadRequest) {
			return errBadRequest("Incorrect old password", err)
		}
		return err
	}
	writeMessage(w, "Password updated successfully")
	return nil
}
