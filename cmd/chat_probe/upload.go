package main

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newUploadCmd(baseURL *string) *cobra.Command {
	var patientID string

	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a discharge note for a patient",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpload(strings.TrimRight(*baseURL, "/")+"/upload-note", patientID, args[0])
		},
	}
	cmd.Flags().StringVar(&patientID, "patient", "", "patient identifier")
	_ = cmd.MarkFlagRequired("patient")
	return cmd
}

func runUpload(endpoint, patientID, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	if err := w.WriteField("patient_id", patientID); err != nil {
		return err
	}
	part, err := w.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return err
	}
	if _, err := part.Write(content); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, endpoint, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("upload failed (%s): %s", resp.Status, respBody)
	}
	color.Green("Status: %s", resp.Status)
	fmt.Println(string(respBody))
	return nil
}
