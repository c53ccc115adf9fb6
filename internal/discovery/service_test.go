package discovery_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gardenerhq/gardener/internal/discovery"
	"github.com/gardenerhq/gardener/internal/workset"
)

const (
	testOrganizationNameConstant = "garden-org"
	testRootOwnerConstant        = "gardener-bot"
	testRootNameConstant         = "garden-root"
	testPageSizeConstant         = 3
)

type stubRepositoryLister struct {
	organizationPages map[int][]workset.RepositoryDescriptor
	userPages         map[int][]workset.RepositoryDescriptor
	organizationError error
	userError         error

	organizationRequests []int
	userRequests         []int
}

func (lister *stubRepositoryLister) ListOrganizationRepositories(executionContext context.Context, organizationName string, pageNumber int, pageSize int) ([]workset.RepositoryDescriptor, error) {
	lister.organizationRequests = append(lister.organizationRequests, pageNumber)
	if lister.organizationError != nil {
		return nil, lister.organizationError
	}
	return lister.organizationPages[pageNumber], nil
}

func (lister *stubRepositoryLister) ListUserRepositories(executionContext context.Context, userLogin string, pageNumber int, pageSize int) ([]workset.RepositoryDescriptor, error) {
	lister.userRequests = append(lister.userRequests, pageNumber)
	if lister.userError != nil {
		return nil, lister.userError
	}
	return lister.userPages[pageNumber], nil
}

func descriptorNamed(repositoryName string) workset.RepositoryDescriptor {
	return workset.RepositoryDescriptor{
		Name:     repositoryName,
		Owner:    testOrganizationNameConstant,
		CloneURL: fmt.Sprintf("https://example.com/%s/%s.git", testOrganizationNameConstant, repositoryName),
	}
}

func rootDescriptor() workset.RepositoryDescriptor {
	return workset.RepositoryDescriptor{
		Name:     testRootNameConstant,
		Owner:    testRootOwnerConstant,
		CloneURL: fmt.Sprintf("https://example.com/%s/%s.git", testRootOwnerConstant, testRootNameConstant),
	}
}

func defaultOptions() discovery.Options {
	return discovery.Options{
		OrganizationName:    testOrganizationNameConstant,
		RootRepositoryOwner: testRootOwnerConstant,
		RootRepositoryName:  testRootNameConstant,
		PageSize:            testPageSizeConstant,
	}
}

func TestNewServiceRequiresLister(testInstance *testing.T) {
	_, serviceError := discovery.NewService(discovery.Dependencies{})
	require.ErrorIs(testInstance, serviceError, discovery.ErrListerNotConfigured)
}

func TestDiscoverRepositoriesStopsOnShortPage(testInstance *testing.T) {
	lister := &stubRepositoryLister{
		userPages: map[int][]workset.RepositoryDescriptor{
			1: {rootDescriptor()},
		},
		organizationPages: map[int][]workset.RepositoryDescriptor{
			1: {descriptorNamed("alpha"), descriptorNamed("beta"), descriptorNamed("delta")},
			2: {descriptorNamed("epsilon")},
		},
	}

	service, serviceError := discovery.NewService(discovery.Dependencies{Lister: lister})
	require.NoError(testInstance, serviceError)

	descriptors, discoveryError := service.DiscoverRepositories(context.Background(), defaultOptions())
	require.NoError(testInstance, discoveryError)

	collectedNames := make([]string, 0, len(descriptors))
	for _, descriptor := range descriptors {
		collectedNames = append(collectedNames, descriptor.Name)
	}
	require.Equal(testInstance, []string{testRootNameConstant, "alpha", "beta", "delta", "epsilon"}, collectedNames)
	require.Equal(testInstance, []int{1, 2}, lister.organizationRequests)
}

func TestDiscoverRepositoriesFetchesFollowUpPageAfterFullPage(testInstance *testing.T) {
	lister := &stubRepositoryLister{
		userPages: map[int][]workset.RepositoryDescriptor{
			1: {rootDescriptor()},
		},
		organizationPages: map[int][]workset.RepositoryDescriptor{
			1: {descriptorNamed("alpha"), descriptorNamed("beta"), descriptorNamed("delta")},
		},
	}

	service, serviceError := discovery.NewService(discovery.Dependencies{Lister: lister})
	require.NoError(testInstance, serviceError)

	descriptors, discoveryError := service.DiscoverRepositories(context.Background(), defaultOptions())
	require.NoError(testInstance, discoveryError)
	require.Len(testInstance, descriptors, 4)

	// A full page cannot prove exhaustion, so an empty follow-up page is
	// requested before stopping.
	require.Equal(testInstance, []int{1, 2}, lister.organizationRequests)
}

func TestDiscoverRepositoriesKeepsFirstOccurrenceOfDuplicateNames(testInstance *testing.T) {
	duplicatedRoot := descriptorNamed(testRootNameConstant)
	lister := &stubRepositoryLister{
		userPages: map[int][]workset.RepositoryDescriptor{
			1: {rootDescriptor()},
		},
		organizationPages: map[int][]workset.RepositoryDescriptor{
			1: {descriptorNamed("alpha"), duplicatedRoot, descriptorNamed("alpha")},
		},
	}

	service, serviceError := discovery.NewService(discovery.Dependencies{Lister: lister})
	require.NoError(testInstance, serviceError)

	descriptors, discoveryError := service.DiscoverRepositories(context.Background(), defaultOptions())
	require.NoError(testInstance, discoveryError)

	require.Len(testInstance, descriptors, 2)
	require.Equal(testInstance, testRootNameConstant, descriptors[0].Name)
	require.Equal(testInstance, testRootOwnerConstant, descriptors[0].Owner)
	require.Equal(testInstance, "alpha", descriptors[1].Name)
}

func TestDiscoverRepositoriesLocatesRootOnLaterPage(testInstance *testing.T) {
	lister := &stubRepositoryLister{
		userPages: map[int][]workset.RepositoryDescriptor{
			1: {descriptorNamed("unrelated-one"), descriptorNamed("unrelated-two"), descriptorNamed("unrelated-three")},
			2: {rootDescriptor()},
		},
		organizationPages: map[int][]workset.RepositoryDescriptor{
			1: {descriptorNamed("alpha")},
		},
	}

	service, serviceError := discovery.NewService(discovery.Dependencies{Lister: lister})
	require.NoError(testInstance, serviceError)

	descriptors, discoveryError := service.DiscoverRepositories(context.Background(), defaultOptions())
	require.NoError(testInstance, discoveryError)
	require.Equal(testInstance, testRootNameConstant, descriptors[0].Name)
	require.Equal(testInstance, []int{1, 2}, lister.userRequests)
}

func TestDiscoverRepositoriesFailsWhenRootMissing(testInstance *testing.T) {
	lister := &stubRepositoryLister{
		userPages: map[int][]workset.RepositoryDescriptor{
			1: {descriptorNamed("unrelated-one")},
		},
	}

	service, serviceError := discovery.NewService(discovery.Dependencies{Lister: lister})
	require.NoError(testInstance, serviceError)

	_, discoveryError := service.DiscoverRepositories(context.Background(), defaultOptions())
	require.ErrorIs(testInstance, discoveryError, discovery.ErrRootRepositoryNotFound)
	require.Contains(testInstance, discoveryError.Error(), testRootOwnerConstant+"/"+testRootNameConstant)
	require.Empty(testInstance, lister.organizationRequests)
}

func TestDiscoverRepositoriesPropagatesListerFailure(testInstance *testing.T) {
	listFailure := errors.New("listing failed")
	lister := &stubRepositoryLister{
		userPages: map[int][]workset.RepositoryDescriptor{
			1: {rootDescriptor()},
		},
		organizationError: listFailure,
	}

	service, serviceError := discovery.NewService(discovery.Dependencies{Lister: lister})
	require.NoError(testInstance, serviceError)

	_, discoveryError := service.DiscoverRepositories(context.Background(), defaultOptions())
	require.ErrorIs(testInstance, discoveryError, listFailure)
}

func TestDiscoverRepositoriesValidatesOptions(testInstance *testing.T) {
	service, serviceError := discovery.NewService(discovery.Dependencies{Lister: &stubRepositoryLister{}})
	require.NoError(testInstance, serviceError)

	testCases := []struct {
		name          string
		mutateOptions func(options *discovery.Options)
		expectedError error
	}{
		{
			name:          "missing_organization",
			mutateOptions: func(options *discovery.Options) { options.OrganizationName = "" },
			expectedError: discovery.ErrOrganizationMissing,
		},
		{
			name:          "missing_root_owner",
			mutateOptions: func(options *discovery.Options) { options.RootRepositoryOwner = "" },
			expectedError: discovery.ErrRootOwnerMissing,
		},
		{
			name:          "missing_root_name",
			mutateOptions: func(options *discovery.Options) { options.RootRepositoryName = "" },
			expectedError: discovery.ErrRootNameMissing,
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			options := defaultOptions()
			testCase.mutateOptions(&options)

			_, discoveryError := service.DiscoverRepositories(context.Background(), options)
			require.ErrorIs(subTest, discoveryError, testCase.expectedError)
		})
	}
}
