package report

import "os"

// DetectCI reads build information from the environment of common CI
// providers. It returns nil outside CI.
func DetectCI() *CI {
	return detectCI(os.Getenv)
}

func detectCI(getenv func(string) string) *CI {
	switch {
	case getenv("GITHUB_ACTIONS") == "true":
		ci := &CI{
			Provider: "github",
			BuildID:  getenv("GITHUB_RUN_ID"),
			Branch:   getenv("GITHUB_REF_NAME"),
			Commit:   getenv("GITHUB_SHA"),
		}
		if server, repo := getenv("GITHUB_SERVER_URL"), getenv("GITHUB_REPOSITORY"); server != "" && repo != "" && ci.BuildID != "" {
			ci.BuildURL = server + "/" + repo + "/actions/runs/" + ci.BuildID
		}
		return ci
	case getenv("GITLAB_CI") == "true":
		return &CI{
			Provider:      "gitlab",
			BuildID:       getenv("CI_PIPELINE_ID"),
			BuildURL:      getenv("CI_PIPELINE_URL"),
			Branch:        getenv("CI_COMMIT_REF_NAME"),
			Commit:        getenv("CI_COMMIT_SHA"),
			CommitMessage: getenv("CI_COMMIT_MESSAGE"),
		}
	case getenv("JENKINS_URL") != "":
		return &CI{
			Provider: "jenkins",
			BuildID:  getenv("BUILD_NUMBER"),
			BuildURL: getenv("BUILD_URL"),
			Branch:   getenv("GIT_BRANCH"),
			Commit:   getenv("GIT_COMMIT"),
		}
	case getenv("CIRCLECI") == "true":
		return &CI{
			Provider: "circleci",
			BuildID:  getenv("CIRCLE_BUILD_NUM"),
			BuildURL: getenv("CIRCLE_BUILD_URL"),
			Branch:   getenv("CIRCLE_BRANCH"),
			Commit:   getenv("CIRCLE_SHA1"),
		}
	case getenv("CI") == "true":
		return &CI{Provider: "generic"}
	}
	return nil
}
