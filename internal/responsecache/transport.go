package responsecache

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
)

const (
	ifNoneMatchHeaderNameConstant  = "If-None-Match"
	etagHeaderNameConstant         = "ETag"
	responseStatusTemplateConstant = "%d %s"
)

// Transport layers conditional-request caching over another round tripper.
// Cache reads and writes are best effort: a broken cache degrades to plain
// pass-through behavior instead of failing requests.
type Transport struct {
	cacheStore          *Store
	underlyingTransport http.RoundTripper
}

// NewTransport wraps the underlying transport with the cache store. A nil
// underlying transport selects http.DefaultTransport.
func NewTransport(cacheStore *Store, underlyingTransport http.RoundTripper) *Transport {
	if underlyingTransport == nil {
		underlyingTransport = http.DefaultTransport
	}
	return &Transport{cacheStore: cacheStore, underlyingTransport: underlyingTransport}
}

// RoundTrip revalidates cached GET responses with If-None-Match and replays
// the stored body on 304 answers. Fresh 200 responses carrying an ETag are
// recorded for the next run.
func (transport *Transport) RoundTrip(request *http.Request) (*http.Response, error) {
	if request.Method != http.MethodGet || transport.cacheStore == nil {
		return transport.underlyingTransport.RoundTrip(request)
	}

	requestURL := request.URL.String()
	cachedResponse, cacheHit, lookupError := transport.cacheStore.Lookup(request.Context(), requestURL)
	if lookupError != nil {
		cacheHit = false
	}

	outboundRequest := request.Clone(request.Context())
	if cacheHit && len(cachedResponse.ETag) > 0 {
		outboundRequest.Header.Set(ifNoneMatchHeaderNameConstant, cachedResponse.ETag)
	}

	response, transportError := transport.underlyingTransport.RoundTrip(outboundRequest)
	if transportError != nil {
		return nil, transportError
	}

	if response.StatusCode == http.StatusNotModified && cacheHit {
		_, discardError := io.Copy(io.Discard, response.Body)
		closeError := response.Body.Close()
		if discardError == nil && closeError == nil {
			return replayCachedResponse(outboundRequest, cachedResponse), nil
		}
		return nil, transportErrorFrom(discardError, closeError)
	}

	if response.StatusCode == http.StatusOK {
		etagValue := response.Header.Get(etagHeaderNameConstant)
		if len(etagValue) > 0 {
			bodyBytes, readError := io.ReadAll(response.Body)
			closeError := response.Body.Close()
			if readError != nil || closeError != nil {
				return nil, transportErrorFrom(readError, closeError)
			}

			_ = transport.cacheStore.Save(request.Context(), requestURL, CachedResponse{
				ETag:       etagValue,
				StatusCode: response.StatusCode,
				Header:     response.Header.Clone(),
				Body:       bodyBytes,
			})

			response.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		}
	}

	return response, nil
}

func replayCachedResponse(request *http.Request, cachedResponse CachedResponse) *http.Response {
	statusCode := cachedResponse.StatusCode
	if statusCode == 0 {
		statusCode = http.StatusOK
	}

	return &http.Response{
		Status:        fmt.Sprintf(responseStatusTemplateConstant, statusCode, http.StatusText(statusCode)),
		StatusCode:    statusCode,
		Proto:         request.Proto,
		ProtoMajor:    request.ProtoMajor,
		ProtoMinor:    request.ProtoMinor,
		Header:        cachedResponse.Header.Clone(),
		Body:          io.NopCloser(bytes.NewReader(cachedResponse.Body)),
		ContentLength: int64(len(cachedResponse.Body)),
		Request:       request,
	}
}

func transportErrorFrom(primaryError error, secondaryError error) error {
	if primaryError != nil {
		return primaryError
	}
	return secondaryError
}
